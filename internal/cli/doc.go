// Package cli provides command-line interface setup and configuration
// for mcqvideo. It creates the cobra commands, binds their flags to viper
// keys and turns the layered configuration into the settings of each
// pipeline stage.
package cli
