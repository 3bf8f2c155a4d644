package constants

import (
	"github.com/kerimovok/go-pkg-utils/config"
	"github.com/kerimovok/go-pkg-utils/validator"
)

var EnvValidationRules = []validator.ValidationRule{
	// Server validation
	{
		Variable: "PORT",
		Default:  "3003",
		Rule:     config.IsValidPort,
		Message:  "server port is required and must be a valid port number",
	},
	{
		Variable: "GO_ENV",
		Default:  "development",
		Rule:     func(v string) bool { return v == "development" || v == "staging" || v == "production" },
		Message:  "GO_ENV must be 'development', 'staging' or 'production'",
	},

	// Database validation
	{
		Variable: "DB_HOST",
		Rule:     func(v string) bool { return v != "" },
		Message:  "database host is required",
	},
	{
		Variable: "DB_PORT",
		Default:  "5432",
		Rule:     config.IsValidPort,
		Message:  "database port is required and must be a valid port number",
	},
	{
		Variable: "DB_USER",
		Rule:     func(v string) bool { return v != "" },
		Message:  "database user is required",
	},
	{
		Variable: "DB_NAME",
		Default:  "filesystem",
		Rule:     func(v string) bool { return v != "" },
		Message:  "database name is required",
	},

	// Storage validation
	{
		Variable: "FILESYSTEM_DISK",
		Default:  "local",
		Rule:     func(v string) bool { return v == "local" || v == "s3" || v == "do" },
		Message:  "FILESYSTEM_DISK must be 'local', 's3' or 'do'",
	},
}
