// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package logger

import (
	"os"
	"sync"
)

// FileWriter appends to a named file and can reopen it, so that log
// rotation tools may move the old file away.
type FileWriter struct {
	mu   sync.Mutex // guards f
	f    *os.File
	name string
	mode os.FileMode
}

// NewFileWriter opens name for appending, creating it with mode 0600.
func NewFileWriter(name string) (*FileWriter, error) {
	fw := &FileWriter{name: name, mode: 0600}
	if err := fw.Reopen(); err != nil {
		return nil, err
	}
	return fw, nil
}

// Reopen closes the current file, if any, and opens name again.
func (fw *FileWriter) Reopen() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.f != nil {
		_ = fw.f.Close()
		fw.f = nil
	}
	f, err := os.OpenFile(fw.name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, fw.mode)
	if err != nil {
		return err
	}
	fw.f = f
	return nil
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.f == nil {
		return 0, os.ErrClosed
	}
	return fw.f.Write(p)
}

func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.f == nil {
		return nil
	}
	err := fw.f.Close()
	fw.f = nil
	return err
}
