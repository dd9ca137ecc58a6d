package blockstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	addTemplate     = "%s/api/v0/add?pin=true"
	catTemplate     = "%s/api/v0/cat?arg=%s"
	versionTemplate = "%s/api/v0/version"
)

type (
	Config struct {
		// NodeURL is the base URL of the content-addressed store's
		// HTTP API (an IPFS-compatible node), e.g. http://127.0.0.1:5001
		NodeURL string
	}

	addResponse struct {
		Name string `json:"Name"`
		Hash string `json:"Hash"`
		Size string `json:"Size"`
	}

	// Client talks to a content-addressed block store over its HTTP
	// API. Objects are pushed with Add (returning their content ID)
	// and retrieved with Cat; Version doubles as a liveness probe.
	Client struct {
		config Config
		client *http.Client
	}
)

func NewClient(config Config) *Client {
	return &Client{
		config: Config{NodeURL: strings.TrimRight(config.NodeURL, "/")},
		// Cat responses are long-lived streams, so no client-wide
		// timeout; cancellation is driven by the request context.
		client: &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: time.Second * 30}},
	}
}

// Add streams the content of 'source' to the node and returns the
// content identifier the node assigned to it. The upload is piped
// straight from the reader into the request body; the object is never
// buffered in memory.
func (client *Client) Add(ctx context.Context, name string, source io.Reader) (string, error) {
	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		part, err := form.CreateFormFile("file", name)
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}

		if _, err := io.Copy(part, source); err != nil {
			pipeWriter.CloseWithError(err)
			return
		}

		pipeWriter.CloseWithError(form.Close())
	}()

	path := fmt.Sprintf(addTemplate, client.config.NodeURL)
	resp, err := client.post(ctx, path, form.FormDataContentType(), pipeReader)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newFailedRequestError(resp)
	}

	var added addResponse
	if err := json.NewDecoder(resp.Body).Decode(&added); err != nil {
		return "", &UnknownRequestError{fmt.Sprintf("add response could not be unmarshalled: %s", err.Error())}
	}

	if added.Hash == "" {
		return "", &UnknownRequestError{"add response contained no content identifier"}
	}

	return added.Hash, nil
}

// Cat requests the object identified by the given content ID and
// returns its byte stream. The caller owns the returned ReadCloser.
func (client *Client) Cat(ctx context.Context, cid string) (io.ReadCloser, error) {
	path := fmt.Sprintf(catTemplate, client.config.NodeURL, url.QueryEscape(cid))
	resp, err := client.post(ctx, path, "", nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, newFailedRequestError(resp)
	}

	return resp.Body, nil
}

// Version pings the node. A nil return means the store is reachable
// and responding; used as the health/liveness check.
func (client *Client) Version(ctx context.Context) error {
	path := fmt.Sprintf(versionTemplate, client.config.NodeURL)
	resp, err := client.post(ctx, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newFailedRequestError(resp)
	}

	return nil
}

// post executes a POST against the node API; the IPFS HTTP API
// accepts POST for all verbs, including reads.
func (client *Client) post(ctx context.Context, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, &UnknownRequestError{fmt.Sprintf("failed to construct request for %s: %s", path, err.Error())}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.client.Do(req)
	if err != nil {
		return nil, &UnreachableError{cause: err}
	}

	return resp, nil
}
