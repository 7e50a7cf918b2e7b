// Package utils hosts the ambient plumbing shared by commands.
//
// ConfigurationLoader layers the embedded defaults, an optional configuration
// file, and WHATGITBRANCH_* environment variables through Viper. LoggerFactory
// builds zap loggers in the structured or console encoding.
package utils
