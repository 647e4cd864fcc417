// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/kvterm/internal/log"
)

// DefaultCSRFCookie is the cookie the interpreter stores its anti-forgery
// token under.
const DefaultCSRFCookie = "csrftoken"

// TokenSource supplies the anti-forgery token attached to each request.
// ok is false when no token is available; the request is still sent.
type TokenSource interface {
	Token() (token string, ok bool)
}

// =============================================================================
// STATIC / JAR SOURCES
// =============================================================================

// StaticTokenSource always returns the same token. Empty means none.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token() (string, bool) {
	return string(s), s != ""
}

// JarTokenSource reads the token from a cookie jar, the way a browser page
// reads it from document.cookie.
type JarTokenSource struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// Token implements TokenSource.
func (s JarTokenSource) Token() (string, bool) {
	if s.Jar == nil || s.URL == nil {
		return "", false
	}
	name := s.Name
	if name == "" {
		name = DefaultCSRFCookie
	}
	for _, c := range s.Jar.Cookies(s.URL) {
		if c.Name == name {
			if v, err := url.QueryUnescape(c.Value); err == nil {
				return v, v != ""
			}
			return c.Value, c.Value != ""
		}
	}
	return "", false
}

// chainTokenSource returns the first token any source has.
type chainTokenSource []TokenSource

func (c chainTokenSource) Token() (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if tok, ok := s.Token(); ok {
			return tok, true
		}
	}
	return "", false
}

// Chain combines sources; earlier sources win.
func Chain(sources ...TokenSource) TokenSource {
	return chainTokenSource(sources)
}

// =============================================================================
// FILE SOURCE
// =============================================================================

// FileTokenSource reads the token from a Netscape cookies.txt file, as
// exported by browsers and curl, and reloads it whenever the file changes.
type FileTokenSource struct {
	path string
	name string

	mu    sync.RWMutex
	token string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFileTokenSource loads the named cookie from path. A missing file is not
// an error; the source simply has no token until the file appears.
func NewFileTokenSource(path, name string) (*FileTokenSource, error) {
	if path == "" {
		return nil, errors.New("cookie file path is empty")
	}
	if name == "" {
		name = DefaultCSRFCookie
	}
	s := &FileTokenSource{path: filepath.Clean(path), name: name}
	if err := s.reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// Token implements TokenSource.
func (s *FileTokenSource) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Watch starts reloading the token on file changes until Close. The parent
// directory is watched so editors that replace the file are handled.
func (s *FileTokenSource) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create cookie file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch cookie file: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.watcher = watcher
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.processEvents(ctx)
	return nil
}

// Close stops watching. Safe to call without Watch.
func (s *FileTokenSource) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	err := s.watcher.Close()
	<-s.done
	s.cancel = nil
	return err
}

func (s *FileTokenSource) processEvents(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					s.set("")
					continue
				}
				log.L().Warnw("cookie file reload failed", "path", s.path, "error", err)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.L().Warnw("cookie file watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileTokenSource) reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	token, err := parseCookieFile(f, s.name)
	if err != nil {
		return err
	}
	s.set(token)
	log.L().Debugw("cookie file loaded", "path", s.path, "found", token != "")
	return nil
}

func (s *FileTokenSource) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// parseCookieFile returns the value of the last cookie called name in a
// Netscape-format cookie file.
func parseCookieFile(r io.Reader, name string) (string, error) {
	var value string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		if fields[5] == name {
			value = fields[6]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read cookie file: %w", err)
	}
	return value, nil
}
