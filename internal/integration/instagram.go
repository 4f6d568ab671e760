package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/event-promo/internal/core"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

const (
	defaultGraphURL     = "https://graph.instagram.com/v21.0"
	defaultPollInterval = 10 * time.Second
	defaultPollTimeout  = 5 * time.Minute
	containerFinished   = "FINISHED"
	containerError      = "ERROR"
	mediaTypeReels      = "REELS"
	mediaTypeVideo      = "VIDEO"
)

// InstagramConfig configures the Graph API publisher.
type InstagramConfig struct {
	APIURL        string
	AccessToken   string
	AccountID     string
	PublicBaseURL string
	PollInterval  time.Duration
	PollTimeout   time.Duration
	HTTP          HTTPConfig
}

// InstagramPublisher publishes rendered videos through the container flow:
// create a media container, wait until it is processed, then publish it.
type InstagramPublisher struct {
	cfg  InstagramConfig
	http *httpDoer
	// once never retries; publishing twice would post twice.
	once *httpDoer
}

// NewInstagramPublisher creates an InstagramPublisher.
func NewInstagramPublisher(cfg InstagramConfig) *InstagramPublisher {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		cfg.APIURL = defaultGraphURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	single := cfg.HTTP
	single.MaxRetries = 0
	return &InstagramPublisher{cfg: cfg, http: newHTTPDoer(cfg.HTTP), once: newHTTPDoer(single)}
}

// IsConfigured reports whether credentials and a public base URL are set.
func (p *InstagramPublisher) IsConfigured() bool {
	return p.cfg.AccessToken != "" && p.cfg.AccountID != "" && p.cfg.PublicBaseURL != ""
}

// MediaType returns the container media type for a format.
func MediaType(format models.Format) string {
	if format == models.Format9x16 {
		return mediaTypeReels
	}
	return mediaTypeVideo
}

// PublicURL returns where the platform can download the artifact.
func (p *InstagramPublisher) PublicURL(artifact string) (string, error) {
	if p.cfg.PublicBaseURL == "" {
		return "", errors.New("no public base url configured for rendered videos")
	}
	return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + url.PathEscape(filepath.Base(artifact)), nil
}

type graphResponse struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Publish runs the container flow. Failures are reported in the result.
func (p *InstagramPublisher) Publish(ctx context.Context, artifact string, caption *core.Caption, format models.Format) core.PublishResult {
	if !p.IsConfigured() {
		return core.PublishResult{Err: errors.New("instagram publisher is not configured")}
	}
	videoURL, err := p.PublicURL(artifact)
	if err != nil {
		return core.PublishResult{Err: err}
	}

	creationID, err := p.createContainer(ctx, videoURL, caption.Full(), format)
	if err != nil {
		return core.PublishResult{Err: fmt.Errorf("creating media container: %w", err)}
	}
	if err := p.waitUntilReady(ctx, creationID); err != nil {
		return core.PublishResult{Err: err}
	}
	postID, err := p.publishContainer(ctx, creationID)
	if err != nil {
		return core.PublishResult{Err: fmt.Errorf("publishing container %s: %w", creationID, err)}
	}
	return core.PublishResult{Published: true, PostID: postID}
}

func (p *InstagramPublisher) createContainer(ctx context.Context, videoURL, caption string, format models.Format) (string, error) {
	form := url.Values{
		"video_url":    {videoURL},
		"caption":      {caption},
		"media_type":   {MediaType(format)},
		"access_token": {p.cfg.AccessToken},
	}
	res, err := p.postForm(ctx, p.http, p.cfg.APIURL+"/"+p.cfg.AccountID+"/media", form)
	if err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", errors.New("response has no container id")
	}
	return res.ID, nil
}

func (p *InstagramPublisher) waitUntilReady(ctx context.Context, creationID string) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	defer cancel()

	q := url.Values{"fields": {"status_code"}, "access_token": {p.cfg.AccessToken}}
	statusURL := p.cfg.APIURL + "/" + creationID + "?" + q.Encode()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		body, err := p.http.get(ctx, statusURL)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("polling container %s: %w", creationID, describeGraphError(err))
		}
		if err == nil {
			var res graphResponse
			if jsonErr := json.Unmarshal(body, &res); jsonErr != nil {
				return fmt.Errorf("polling container %s: decode response: %w", creationID, jsonErr)
			}
			switch res.StatusCode {
			case containerFinished:
				return nil
			case containerError:
				return fmt.Errorf("container %s failed processing", creationID)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("container %s not ready after %s", creationID, p.cfg.PollTimeout)
		case <-ticker.C:
		}
	}
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, creationID string) (string, error) {
	form := url.Values{"creation_id": {creationID}, "access_token": {p.cfg.AccessToken}}
	res, err := p.postForm(ctx, p.once, p.cfg.APIURL+"/"+p.cfg.AccountID+"/media_publish", form)
	if err != nil {
		return "", err
	}
	if res.ID == "" {
		return "", errors.New("response has no post id")
	}
	return res.ID, nil
}

func (p *InstagramPublisher) postForm(ctx context.Context, doer *httpDoer, endpoint string, form url.Values) (*graphResponse, error) {
	encoded := form.Encode()
	resp, err := doer.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, describeGraphError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var res graphResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if res.Error != nil {
		return nil, errors.New(res.Error.Message)
	}
	return &res, nil
}

// describeGraphError replaces a status error with the API's own message when
// the body carries one.
func describeGraphError(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	var res graphResponse
	if json.Unmarshal([]byte(se.Body), &res) == nil && res.Error != nil && res.Error.Message != "" {
		return fmt.Errorf("%s: %s", se.Status, res.Error.Message)
	}
	return err
}
