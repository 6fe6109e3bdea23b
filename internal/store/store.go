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

// Package store implements the filesystem namespace: cache-root-scoped
// blobs and session-tmp-scoped files, their permission choreography, and
// the Move/Copy operations between them. Grounded on FileSystem.cpp.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/allkorrect/allkorrect/common"
	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/google/uuid"
)

const randStrLen = 10

// mode bits, matching FileSystem.cpp exactly.
const (
	modeAtRest    os.FileMode = 0700
	modeReadOnly  os.FileMode = 0744
	modeWriteOnly os.FileMode = 0722
	modeAllAccess os.FileMode = 0777
	modeTmpDir    os.FileMode = 0733
)

const nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Store roots every blob at Root and every session's files under a tmp
// directory created beneath Root.
type Store struct {
	Root string
}

func New(root string) *Store {
	if len(root) == 0 || root[len(root)-1] != filepath.Separator {
		root += string(filepath.Separator)
	}
	return &Store{Root: root}
}

// Init creates the cache root if it does not already exist.
func (s *Store) Init() error {
	if _, err := os.Stat(s.Root); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return apperrors.Wrap(apperrors.IOError, "stat cache root", err)
	}
	if err := os.MkdirAll(s.Root, 0711); err != nil {
		return apperrors.Wrap(apperrors.IOError, "create cache directory", err)
	}
	return nil
}

// Reconcile removes stale session tmp directories left under the cache
// root from a previous run, leaving cache-class blobs untouched. Mirrors
// FileSystem::RemoveSubDirs, called once at startup.
func (s *Store) Reconcile() error {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(apperrors.IOError, "read cache root", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := os.RemoveAll(filepath.Join(s.Root, e.Name())); err != nil {
				return apperrors.Wrap(apperrors.IOError, "remove stale tmp dir", err)
			}
		}
	}
	return nil
}

// RandString returns a random name on the store's fixed alphabet, prefixed
// with '_' — FileSystem::RandString always does this, so every name it
// mints (tmp dirs, but also EXEC's stdout/stderr blobs) is tmp-class and
// therefore always eligible for janitor deletion, uncapped by cache size.
func RandString() string {
	entropy := uuid.New()
	buf := make([]byte, 0, randStrLen+1)
	buf = append(buf, '_')
	for i := 0; i < randStrLen; i++ {
		buf = append(buf, nameAlphabet[int(entropy[i%len(entropy)])%len(nameAlphabet)])
	}
	return string(buf)
}

// NewTmpDir creates a new session-scoped directory under Root, mode 0733.
func (s *Store) NewTmpDir() (string, error) {
	dir := filepath.Join(s.Root, RandString()) + string(filepath.Separator)
	if err := os.Mkdir(dir, modeTmpDir); err != nil {
		return "", apperrors.Wrap(apperrors.IOError, "create tmp dir", err)
	}
	if err := os.Chmod(dir, modeTmpDir); err != nil {
		return "", apperrors.Wrap(apperrors.IOError, "chmod tmp dir", err)
	}
	return dir, nil
}

// RecursiveRemove deletes a directory tree, matching FileSystem::RecursiveRemove.
func RecursiveRemove(dir string) error {
	return os.RemoveAll(dir)
}

// CheckName validates a blob/file name against the wire protocol's alphabet:
// non-empty, [0-9A-Za-z._-] only.
func CheckName(name string) error {
	if name == "" {
		return apperrors.New(apperrors.InvalidName, "name is empty")
	}
	for _, c := range name {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' ||
			c == '-' || c == '_' || c == '.') {
			return apperrors.New(apperrors.InvalidName, fmt.Sprintf("invalid character %q in name", c))
		}
	}
	return nil
}

// NewBlob creates an empty file at path, mode 0700.
func NewBlob(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, modeAtRest)
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "create blob", err)
	}
	return f.Close()
}

func SetReadOnly(path string) error {
	if err := os.Chmod(path, modeReadOnly); err != nil {
		return apperrors.Wrap(apperrors.IOError, "set blob read only", err)
	}
	return nil
}

func SetWriteOnly(path string) error {
	if err := os.Chmod(path, modeWriteOnly); err != nil {
		return apperrors.Wrap(apperrors.IOError, "set blob write only", err)
	}
	return nil
}

func SetAllAccess(path string) error {
	if err := os.Chmod(path, modeAllAccess); err != nil {
		return apperrors.Wrap(apperrors.IOError, "set blob all access", err)
	}
	return nil
}

func Restore(path string) error {
	if err := os.Chmod(path, modeAtRest); err != nil {
		return apperrors.Wrap(apperrors.IOError, "restore blob permission", err)
	}
	return nil
}

// Has reports whether path exists, translating ENOENT into (false, nil) and
// any other stat failure into an IOError.
func Has(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.IOError, "stat", err)
	}
	return true, nil
}

// PutBlob writes content to path, creating it mode 0700 if absent.
func PutBlob(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, modeAtRest)
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "put blob open", err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return apperrors.Wrap(apperrors.IOError, "put blob write", err)
	}
	return nil
}

// GetBlob reads the entire contents of path.
func GetBlob(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOError, "get blob", err)
	}
	return content, nil
}

// copyFile performs a byte-wise copy from oldName to newName, replacing the
// original's `system("cp ...")` shell-out with an in-process copy built on
// common.CopyWhole.
func copyFile(oldName, newName string) error {
	src, err := os.Open(oldName)
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "copy: open source", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "copy: stat source", err)
	}

	dst, err := os.OpenFile(newName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "copy: open dest", err)
	}
	defer dst.Close()

	if _, err := common.CopyWhole(dst, src, info.Size()); err != nil && err != io.EOF {
		return apperrors.Wrap(apperrors.IOError, "copy: copy bytes", err)
	}
	return nil
}

// The eight Move/Copy variants below are a 2(op)x2(src class)x2(dst class)
// product; each ends the destination in the permission state the class
// it now belongs to requires.

func MoveBlob2File(blob, file string) error {
	if err := SetAllAccess(blob); err != nil {
		return err
	}
	if err := os.Rename(blob, file); err != nil {
		return apperrors.Wrap(apperrors.IOError, "move blob to file", err)
	}
	return nil
}

func MoveBlob2Blob(blob1, blob2 string) error {
	if err := os.Rename(blob1, blob2); err != nil {
		return apperrors.Wrap(apperrors.IOError, "move blob to blob", err)
	}
	return nil
}

func MoveFile2Blob(file, blob string) error {
	if err := os.Rename(file, blob); err != nil {
		return apperrors.Wrap(apperrors.IOError, "move file to blob", err)
	}
	return Restore(blob)
}

func MoveFile2File(file1, file2 string) error {
	if err := os.Rename(file1, file2); err != nil {
		return apperrors.Wrap(apperrors.IOError, "move file to file", err)
	}
	return nil
}

func CopyBlob2File(blob, file string) error {
	if err := copyFile(blob, file); err != nil {
		return err
	}
	return SetAllAccess(file)
}

func CopyBlob2Blob(blob1, blob2 string) error {
	if err := copyFile(blob1, blob2); err != nil {
		return err
	}
	return Restore(blob2)
}

func CopyFile2Blob(file, blob string) error {
	if err := copyFile(file, blob); err != nil {
		return err
	}
	return Restore(blob)
}

func CopyFile2File(file1, file2 string) error {
	if err := copyFile(file1, file2); err != nil {
		return err
	}
	return SetAllAccess(file2)
}
