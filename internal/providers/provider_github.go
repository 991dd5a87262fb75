package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ghapi "github.com/google/go-github/v72/github"

	"github.com/blackbox-racing/blackboxd/api"
)

// The Github provider.
type github struct {
	gh           *ghapi.Client
	organization string
	repository   string

	config map[string]string
}

func (*github) Type() string {
	return "github"
}

func (p *github) Latest(ctx context.Context) (*api.Release, error) {
	// Get the latest release.
	release, _, err := p.gh.Repositories.GetLatestRelease(ctx, p.organization, p.repository)
	if err != nil {
		// A repository without any published release isn't an error.
		var ghErr *ghapi.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			slog.InfoContext(ctx, "No releases found in registry", "repository", p.organization+"/"+p.repository)

			return nil, nil //nolint:nilnil
		}

		return nil, p.checkLimit(err)
	}

	return &api.Release{
		Version:      strings.TrimPrefix(release.GetTagName(), "v"),
		DownloadURL:  release.GetZipballURL(),
		ReleaseNotes: release.GetBody(),
		PublishedAt:  release.GetPublishedAt().Time,
	}, nil
}

func (p *github) load(_ context.Context) error {
	// Parse the repository identifier.
	organization, repository, ok := strings.Cut(p.config["repository"], "/")
	if !ok || organization == "" || repository == "" {
		return errors.New("invalid github repository " + p.config["repository"])
	}

	p.organization = organization
	p.repository = repository

	// Setup the Github client. Keep an explicit timeout so a hung registry
	// can't stall the update job past its slot.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	p.gh = ghapi.NewClient(httpClient)

	// Attach the token when one is configured.
	if p.config["token"] != "" {
		p.gh = p.gh.WithAuthToken(p.config["token"])
	}

	return nil
}

func (*github) checkLimit(err error) error {
	_, ok := err.(*ghapi.RateLimitError) //nolint:errorlint
	if ok {
		return ErrProviderUnavailable
	}

	return err
}
