/*
 * TGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"fmt"
	"os"
	"testing"
)

const testconf = "testconfig"

const invalidFileName = "**" + "\x00"

func TestConfig(t *testing.T) {

	Config = nil

	os.WriteFile(testconf, []byte(`{
    "EnableCommitFeed": true,
    "CapacityExpansionFactor": "1.5"
}`), 0644)

	defer func() {
		if err := os.Remove(testconf); err != nil {
			fmt.Print("Could not remove test config file:", err.Error())
		}
	}()

	if err := LoadConfigFile(testconf); err != nil {
		t.Error(err)
		return
	}

	if res := Str(EnableCommitFeed); res != "true" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Bool(EnableCommitFeed); !res {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Float(CapacityExpansionFactor); res != 1.5 {
		t.Error("Unexpected result:", res)
		return
	}

	// Missing values are filled with defaults

	if res := Int(InitialVertexCapacity); fmt.Sprint(res) != DefaultConfig[InitialVertexCapacity] {
		t.Error("Unexpected result:", res)
		return
	}

	LoadDefaultConfig()

	if res := Str(EnableCommitFeed); res != "false" {
		t.Error("Unexpected result:", res)
		return
	}

	Config[CommitFeedPort] = "123"

	if res := Int(CommitFeedPort); fmt.Sprint(res) == DefaultConfig[CommitFeedPort] {
		t.Error("Unexpected result:", res)
		return
	}

	if DefaultConfig[CommitFeedPort] != "9091" {
		t.Error("Default config should not be modified")
		return
	}
}

func TestConfigErrors(t *testing.T) {

	if err := LoadConfigFile(invalidFileName); err == nil {
		t.Error("Loading an invalid file should fail")
		return
	}

	LoadDefaultConfig()

	Config[InitialEdgeCapacity] = "abc"

	defer func() {
		if r := recover(); r == nil {
			t.Error("Parsing an invalid value should panic")
		}
		LoadDefaultConfig()
	}()

	Int(InitialEdgeCapacity)
}
