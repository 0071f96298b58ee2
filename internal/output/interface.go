// Copyright 2025 The gitpulse Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

// RecordWriter defines the interface for writing fetched records. This
// abstraction allows different output formats to be added without changing
// the fetch pipeline.
type RecordWriter interface {
	// Write writes a single record to the output.
	Write(record any) error

	// Count returns the number of records written so far.
	Count() int

	// Close flushes buffered output and releases any resources. Call it
	// when all writing is complete.
	Close() error
}
