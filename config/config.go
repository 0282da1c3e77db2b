/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package config contains the global configuration of a TGraph process.
*/
package config

import (
	"fmt"
	"strconv"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
)

// Global variables
// ================

/*
ProductVersion is the current version of TGraph
*/
const ProductVersion = "1.0.0"

/*
DefaultConfigFile is the default config file which will be used to configure
a TGraph process
*/
var DefaultConfigFile = "tgraph.config.json"

/*
Known configuration options for TGraph
*/
const (
	GraphName               = "GraphName"
	InitialVertexCapacity   = "InitialVertexCapacity"
	InitialEdgeCapacity     = "InitialEdgeCapacity"
	CapacityExpansionFactor = "CapacityExpansionFactor"
	EnableCommitFeed        = "EnableCommitFeed"
	CommitFeedHost          = "CommitFeedHost"
	CommitFeedPort          = "CommitFeedPort"
	EnableECALBridge        = "EnableECALBridge"
	ECALScriptFolder        = "ECALScriptFolder"
	ECALEntryScript         = "ECALEntryScript"
	ECALLogLevel            = "ECALLogLevel"
	ECALLogFile             = "ECALLogFile"
	ECALWorkerCount         = "ECALWorkerCount"
	LogLevel                = "LogLevel"
)

/*
DefaultConfig is the default configuration
*/
var DefaultConfig = map[string]interface{}{
	GraphName:               "main",
	InitialVertexCapacity:   "1000",
	InitialEdgeCapacity:     "1000",
	CapacityExpansionFactor: "2.0",
	EnableCommitFeed:        false,
	CommitFeedHost:          "127.0.0.1",
	CommitFeedPort:          "9091",
	EnableECALBridge:        false,
	ECALScriptFolder:        "scripts",
	ECALEntryScript:         "main.ecal",
	ECALLogLevel:            "info",
	ECALLogFile:             "",
	ECALWorkerCount:         "1",
	LogLevel:                "Info",
}

/*
Config is the actual config which is used
*/
var Config map[string]interface{}

/*
LoadConfigFile loads a given config file. If the config file does not exist it is
created with the default options.
*/
func LoadConfigFile(configfile string) error {
	var err error

	Config, err = fileutil.LoadConfig(configfile, DefaultConfig)

	return err
}

/*
LoadDefaultConfig loads the default configuration.
*/
func LoadDefaultConfig() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int64 {
	ret, err := strconv.ParseInt(fmt.Sprint(Config[key]), 10, 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Float reads a config value as a float value.
*/
func Float(key string) float64 {
	ret, err := strconv.ParseFloat(fmt.Sprint(Config[key]), 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}
