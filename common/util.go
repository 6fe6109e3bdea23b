// Copyright 2026 The AllKorrect Authors
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

package common

import (
	"log"
	"os"
)

// CloseFile closes file, logging (rather than discarding) any error —
// used by callers that hold a file only for its side effect and have no
// meaningful way to propagate a close failure.
func CloseFile(file *os.File) {
	if err := file.Close(); err != nil {
		log.Printf("error closing %s: %v", file.Name(), err)
	}
}
