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

package sandbox

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/allkorrect/allkorrect/internal/apperrors"
)

// statmDataField is the 1-indexed field of /proc/{pid}/statm that holds the
// process's data-segment size, in pages. The original parses this file with
// an fscanf loop that re-reads into a single variable six times — only the
// sixth and final read survives, which is the "data" column, not "resident"
// as its misleading upstream comment claims. getMemoryUsed reproduces that
// observed behavior rather than the comment's intent.
const statmDataField = 6

// getMemoryUsed returns the tracee's data-segment size in bytes, read from
// /proc/{pid}/statm, matching Execute.cpp's getMemoryUsed.
func getMemoryUsed(pid int) (int64, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, apperrors.Wrap(apperrors.IOError, "read statm", err)
	}
	return parseStatmDataBytes(raw, os.Getpagesize())
}

// parseStatmDataBytes extracts the data-segment page count (field 6) from
// the contents of a statm file and scales it by pageSize.
func parseStatmDataBytes(raw []byte, pageSize int) (int64, error) {
	fields := strings.Fields(string(raw))
	if len(fields) < statmDataField {
		return 0, apperrors.New(apperrors.IOError, "statm: too few fields")
	}
	pages, err := strconv.ParseInt(fields[statmDataField-1], 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.IOError, "statm: parse data field", err)
	}
	return pages * int64(pageSize), nil
}
