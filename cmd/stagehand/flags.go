package main

type rootFlags struct {
	configFile           string
	noColor              bool
	simpleOutput         bool
	quiet                bool
	noUpdateNotification bool
}
