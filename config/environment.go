/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import "github.com/tomoncle/sprout/types"

// Environment is the deployment tag read from NODE_ENV.
type Environment int

const (
	Development Environment = iota
	Production
	Test
)

var _ types.BaseEnum = Development

// Environments lists every valid Environment in declaration order.
func Environments() []Environment {
	return []Environment{Development, Production, Test}
}

// ParseEnvironment maps a NODE_ENV value to an Environment.
func ParseEnvironment(name string) (Environment, bool) {
	env, ok := types.ParseEnum(name, Environments()...)
	if !ok {
		return Environment(types.IllegalValue), false
	}
	return env, true
}

func (e Environment) IsValid() bool {
	return e >= Development && e <= Test
}

func (e Environment) Number() int {
	if !e.IsValid() {
		return types.IllegalValue
	}
	return int(e)
}

func (e Environment) String() string { return e.Name() }

func (e Environment) Name() string {
	switch e {
	case Development:
		return "development"
	case Production:
		return "production"
	case Test:
		return "test"
	default:
		return types.IllegalName
	}
}

func (e Environment) Desc() string {
	switch e {
	case Development:
		return "local development: query logging and schema synchronization on"
	case Production:
		return "production: query logging and schema synchronization off, TLS on"
	case Test:
		return "automated tests: same connection behavior as development"
	default:
		return types.IllegalDesc
	}
}
