// Copyright 2026 The Okteto Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package env

import (
	"os"
	"strconv"
	"time"

	"github.com/okteto/sshpod/pkg/log"
)

// LoadBoolean loads a boolean environment variable and returns it value
func LoadBoolean(k string) bool {
	return LoadBooleanOrDefault(k, false)
}

// LoadBooleanOrDefault loads a boolean environment variable and returns it value
// If the variable is not defined, it returns the default value
func LoadBooleanOrDefault(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}

	h, err := strconv.ParseBool(v)
	if err != nil {
		log.Warning("'%s' is not a valid value for environment variable %s", v, k)
		return d
	}

	return h
}

// LoadDurationOrDefault loads a duration environment variable ("30s", "2m") and returns it value.
// If the variable is not defined or can't be parsed, it returns the default value
func LoadDurationOrDefault(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}

	parsed, err := time.ParseDuration(v)
	if err != nil || parsed < 0 {
		log.Warning("'%s' is not a valid value for environment variable %s", v, k)
		return d
	}

	return parsed
}
