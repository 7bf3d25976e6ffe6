package logging

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDGenerator genera identificadores de request y de ciclo del scheduler
type RequestIDGenerator struct {
	prefix string
}

func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{prefix: prefix}
}

// Generate crea un ID con formato {prefix}_{uuid sin guiones}
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateShort crea un ID corto con los primeros 8 caracteres del uuid
func (g *RequestIDGenerator) GenerateShort() string {
	return g.prefix + "_" + uuid.NewString()[:8]
}

var (
	defaultGenerator = NewRequestIDGenerator("req")
	cycleGenerator   = NewRequestIDGenerator("cycle")
)

// GenerateRequestID genera un request ID para la API HTTP
func GenerateRequestID() string {
	return defaultGenerator.Generate()
}

// GenerateCycleID genera un ID corto para cada tick del scheduler
func GenerateCycleID() string {
	return cycleGenerator.GenerateShort()
}
