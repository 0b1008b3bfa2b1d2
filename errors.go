/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
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

package membership

import "github.com/pkg/errors"

var (
	// ErrBuildExhausted is returned when the Othello builder cannot find an
	// acyclic seed pair within the rehash limit. The caller must enlarge the
	// tables or accept the failure; the structure is left unusable.
	ErrBuildExhausted = errors.New("othello: rehash limit reached without an acyclic seed pair")

	// ErrIndexOutOfRange is returned for operations addressing a key slot at
	// or beyond the current key count.
	ErrIndexOutOfRange = errors.New("othello: key index out of range")
)
