package environments

import "strings"

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// Parse maps APP_ENV values to a known environment, falling back to development.
func Parse(value string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(value))); env {
	case Production, Development, Staging, Test:
		return env
	case "prod":
		return Production
	case "dev", "":
		return Development
	}
	return Development
}

func (e Environment) IsProduction() bool {
	return e == Production
}
