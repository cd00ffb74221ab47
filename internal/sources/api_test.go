package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartus-community/de-catalog/internal/httpclient"
)

func TestGenericHandlerFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"designs":[`+
			`{"downloadUrl":"https://store.example.com/pkg.zip","rich_description":"<b>demo</b>"},`+
			`{"downloadUrl":"https://store.example.com/other.zip","rich_description":""}]}}`)
	}))
	defer srv.Close()

	handler := NewGenericHandler(httpclient.NewDefaultClient(0, ""))
	desc := &SourceDescriptor{URL: srv.URL, Headers: map[string]string{}}

	result, err := handler.Fetch(context.Background(), desc)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Empty(t, result.Issues)

	// No asset index for generic sources: the declared URL is used verbatim
	assert.Equal(t, "https://store.example.com/pkg.zip", result.Items[0][ResolvedDownloadURLKey])
	assert.Equal(t, "https://store.example.com/other.zip", result.Items[1][ResolvedDownloadURLKey])

	// No release tag asymmetry correction for generic sources
	_, tagged := result.Items[0][ReleaseTagKey]
	assert.False(t, tagged)
}

func TestGenericHandlerFetchTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	handler := NewGenericHandler(httpclient.NewDefaultClient(0, ""))
	desc := &SourceDescriptor{URL: srv.URL, Headers: map[string]string{}}

	result, err := handler.Fetch(context.Background(), desc)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestGenericHandlerFetchInvalidBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	handler := NewGenericHandler(httpclient.NewDefaultClient(0, ""))
	desc := &SourceDescriptor{URL: srv.URL, Headers: map[string]string{}}

	result, err := handler.Fetch(context.Background(), desc)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestGenericHandlerFetchUnknownEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"foo":1}`)
	}))
	defer srv.Close()

	handler := NewGenericHandler(httpclient.NewDefaultClient(0, ""))
	desc := &SourceDescriptor{URL: srv.URL, Headers: map[string]string{}}

	result, err := handler.Fetch(context.Background(), desc)
	require.NoError(t, err)
	assert.Empty(t, result.Items)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Message, "invalid data format")
}

func TestGenericHandlerFetchEmptyList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"designs":[]}`)
	}))
	defer srv.Close()

	handler := NewGenericHandler(httpclient.NewDefaultClient(0, ""))
	desc := &SourceDescriptor{URL: srv.URL, Headers: map[string]string{}}

	result, err := handler.Fetch(context.Background(), desc)
	require.NoError(t, err)
	assert.Empty(t, result.Items)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
}

func TestHandlerFactoryRouting(t *testing.T) {
	t.Parallel()

	client := httpclient.NewDefaultClient(0, "")
	github := NewGitHubHandler(client, "")
	generic := NewGenericHandler(client)
	factory := NewHandlerFactory(github, generic)

	assert.Same(t, github,
		factory.HandlerFor(&SourceDescriptor{URL: "https://github.com/intel/example"}))
	assert.Same(t, generic,
		factory.HandlerFor(&SourceDescriptor{URL: "https://bsas.intel.com/api/design_examples/latest/"}))
}
