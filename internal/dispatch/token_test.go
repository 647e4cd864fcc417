// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieFile = `# Netscape HTTP Cookie File
127.0.0.1	FALSE	/	FALSE	0	sessionid	abc
#HttpOnly_127.0.0.1	FALSE	/	FALSE	0	csrftoken	from-file
`

func TestParseCookieFile(t *testing.T) {
	got, err := parseCookieFile(strings.NewReader(cookieFile), "csrftoken")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = parseCookieFile(strings.NewReader(cookieFile), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticTokenSource(t *testing.T) {
	_, ok := StaticTokenSource("").Token()
	assert.False(t, ok)

	tok, ok := StaticTokenSource("t").Token()
	assert.True(t, ok)
	assert.Equal(t, "t", tok)
}

func TestJarTokenSource_DecodesValue(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse("http://127.0.0.1:8000")
	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "a%2Bb", Path: "/"}})

	tok, ok := JarTokenSource{Jar: jar, URL: u}.Token()
	assert.True(t, ok)
	assert.Equal(t, "a+b", tok)

	_, ok = JarTokenSource{Jar: jar, URL: u, Name: "other"}.Token()
	assert.False(t, ok)
}

func TestChain_FirstAvailableWins(t *testing.T) {
	tok, ok := Chain(nil, StaticTokenSource(""), StaticTokenSource("second")).Token()
	assert.True(t, ok)
	assert.Equal(t, "second", tok)
}

func TestFileTokenSource_MissingFileThenCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")

	src, err := NewFileTokenSource(path, "")
	require.NoError(t, err)
	_, ok := src.Token()
	assert.False(t, ok)

	require.NoError(t, src.Watch())
	t.Cleanup(func() { _ = src.Close() })

	require.NoError(t, os.WriteFile(path, []byte(cookieFile), 0o600))

	require.Eventually(t, func() bool {
		tok, ok := src.Token()
		return ok && tok == "from-file"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestFileTokenSource_CloseWithoutWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(cookieFile), 0o600))

	src, err := NewFileTokenSource(path, "csrftoken")
	require.NoError(t, err)
	tok, ok := src.Token()
	assert.True(t, ok)
	assert.Equal(t, "from-file", tok)
	assert.NoError(t, src.Close())
}
