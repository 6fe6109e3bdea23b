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

package session

import (
	"os"

	"github.com/allkorrect/allkorrect/common"
	"github.com/allkorrect/allkorrect/internal/apperrors"
)

// openReadOrNil opens path for reading, or returns a nil *os.File when path
// is empty (meaning the EXEC request carried no stdin redirection).
func openReadOrNil(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOError, "open input blob", err)
	}
	return f, nil
}

// openWriteFiles opens the sandboxed process's stdout/stderr destinations.
func openWriteFiles(outputPath, errorPath string) (out, errf *os.File, err error) {
	out, err = os.OpenFile(outputPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.IOError, "open output blob", err)
	}
	errf, err = os.OpenFile(errorPath, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		common.CloseFile(out)
		return nil, nil, apperrors.Wrap(apperrors.IOError, "open error blob", err)
	}
	return out, errf, nil
}
