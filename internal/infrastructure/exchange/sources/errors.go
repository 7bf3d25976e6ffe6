package sources

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("currency not served by this source")
	ErrRateNotFound        = errors.New("rate missing from source response")
	ErrInvalidRate         = errors.New("invalid rate value")
)
