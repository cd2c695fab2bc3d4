package seg

// Package seg is the interface to the trained segmentation model. The model
// session, checkpoint restoration and image preprocessing live behind an
// inference service; this package only knows how to ask it for a mask.

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/tilevec/tilevec/pkg/mask"
	"github.com/tilevec/tilevec/pkg/maskstore"
	"github.com/tilevec/tilevec/pkg/requests"
)

// Segmenter produces a class probability mask for one image. Implementations
// own a single model session; Predict is not safe for concurrent use.
type Segmenter interface {
	// Predict returns the probability mask for imageID
	Predict(imageID string) (*mask.Prob, error)

	// Close releases the model session
	Close()
}

// Client talks to an inference service that holds the restored checkpoint
// and the source imagery. The API key comes from the SEG_API_KEY environment
// variable, if set.
type Client struct {
	baseUrl string
	apiKey  string
	http    *http.Client
	log     logs.Log
}

func NewClient(log logs.Log, baseUrl string) *Client {
	return &Client{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		apiKey:  os.Getenv("SEG_API_KEY"),
		http:    &http.Client{Timeout: 10 * time.Minute},
		log:     log,
	}
}

// ModelInfo describes the checkpoint the inference service has loaded.
type ModelInfo struct {
	Name    string `json:"name"`
	Classes int    `json:"classes"`
}

// ModelInfo asks the service which model it is serving, so a run's log
// records the checkpoint that produced it.
func (c *Client) ModelInfo() (*ModelInfo, error) {
	return requests.RequestJSON[ModelInfo](c.http, "GET", c.baseUrl+"/api/model", c.apiKey, nil)
}

func (c *Client) Predict(imageID string) (*mask.Prob, error) {
	req, err := http.NewRequest("GET", c.baseUrl+"/api/predict/"+url.PathEscape(imageID), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch prediction for '%v': %w", imageID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("prediction for '%v' failed: %v %v", imageID, resp.Status, strings.TrimSpace(string(body)))
	}
	m, err := maskstore.ReadBlob(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode mask for '%v': %w", imageID, err)
	}
	// The service reports the preprocessed image shape. A mask that doesn't
	// match it means the model and the pipeline disagree about geometry.
	if w := headerInt(resp, "X-Image-Width"); w != 0 && w != m.W {
		panic(fmt.Sprintf("mask width %v does not match image width %v for '%v'", m.W, w, imageID))
	}
	if h := headerInt(resp, "X-Image-Height"); h != 0 && h != m.H {
		panic(fmt.Sprintf("mask height %v does not match image height %v for '%v'", m.H, h, imageID))
	}
	return m, nil
}

func (c *Client) Close() {
}

func headerInt(resp *http.Response, key string) int {
	v, _ := strconv.Atoi(resp.Header.Get(key))
	return v
}
