package render

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedContentServer(t *testing.T) *ContentServer {
	t.Helper()
	server := newContentServer(zerolog.Nop())
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestContentServerServesPublishedDocument(t *testing.T) {
	server := startedContentServer(t)

	url, release := server.Publish("<html><body>one</body></html>")
	defer release()

	status, body := fetch(t, url)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html><body>one</body></html>", body)
}

func TestContentServerReleaseRemovesDocument(t *testing.T) {
	server := startedContentServer(t)

	url, release := server.Publish("<html></html>")
	release()

	status, _ := fetch(t, url)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestContentServerUnknownToken(t *testing.T) {
	server := startedContentServer(t)

	status, _ := fetch(t, server.BaseURL()+"/doc/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

// Concurrent renders must each be served their own document; a shared
// pending-document slot would make this flaky.
func TestContentServerConcurrentDocumentsStayIsolated(t *testing.T) {
	server := startedContentServer(t)

	const renders = 16
	var wg sync.WaitGroup
	errs := make(chan error, renders)

	for i := 0; i < renders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := fmt.Sprintf("<html><body>construction-%d</body></html>", i)
			url, release := server.Publish(doc)
			defer release()

			resp, err := http.Get(url)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				errs <- err
				return
			}
			if string(body) != doc {
				errs <- fmt.Errorf("render %d was served someone else's document: %q", i, body)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
