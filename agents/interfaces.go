package agents

import (
	"fundamental-analyst/services"
)

// Type aliases for service interfaces - defined in services package
// These aliases allow agents to reference interfaces without importing concrete implementations
type LLMService = services.LLMService
