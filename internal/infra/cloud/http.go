package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// MetadataBaseDefault is the well-known IMDS-style metadata host.
const MetadataBaseDefault = "http://169.254.169.254"

const spotActionPath = "/latest/meta-data/spot/instance-action"
const tokenPath = "/latest/api/token"

// HTTPProvider is the production-shaped adapter: its read side (notice
// polling via IMDSv2 token+GET) is fully implemented against plain
// net/http, since that is genuinely an HTTP protocol. Its write side
// (launch/terminate/tag/target-registration) intentionally has narrow,
// unimplemented method bodies — wiring a real cloud control plane requires
// a provider SDK (aws-sdk-go-v2 in original_source) that has no grounding
// anywhere in the retrieved Go corpus. See DESIGN.md.
type HTTPProvider struct {
	Client        *http.Client
	MetadataBase  string
	TokenTTL      time.Duration
}

// NewHTTPProvider creates an HTTPProvider with the given metadata base
// (defaults to MetadataBaseDefault) and a 2s-timeout client.
func NewHTTPProvider(metadataBase string) *HTTPProvider {
	if metadataBase == "" {
		metadataBase = MetadataBaseDefault
	}
	return &HTTPProvider{
		Client:       &http.Client{Timeout: 2 * time.Second},
		MetadataBase: metadataBase,
		TokenTTL:     21600 * time.Second,
	}
}

// token performs the IMDSv2 PUT-for-token exchange.
func (p *HTTPProvider) token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.MetadataBase+tokenPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-aws-ec2-metadata-token-ttl-seconds", fmt.Sprintf("%d", int(p.TokenTTL.Seconds())))

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

type noticePayload struct {
	Action string `json:"action"`
	Time   string `json:"time"`
}

// CheckNotice performs one token+GET exchange against the metadata
// endpoint. A 404 yields (nil, nil) — no notice. A connect-refused error
// yields (nil, domain.ErrNotPreemptibleHardware).
func (p *HTTPProvider) CheckNotice(ctx context.Context) (*domain.Notice, error) {
	tok, err := p.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotPreemptibleHardware, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.MetadataBase+spotActionPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-aws-ec2-metadata-token", tok)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotPreemptibleHardware, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata: unexpected status %d", resp.StatusCode)
	}

	var payload noticePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoticeMalformed, err)
	}

	action, err := domain.ParseSpotAction(payload.Action)
	if err != nil {
		return nil, err
	}
	actionTime, err := time.Parse(time.RFC3339, payload.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoticeMalformed, err)
	}

	return &domain.Notice{
		Action:             action,
		ActionTime:         actionTime,
		SecondsUntilAction: domain.SecondsUntil(actionTime, time.Now()),
	}, nil
}

// The write-side capability set is not implemented against a real cloud
// control plane — see the package doc comment and DESIGN.md. Callers that
// need a working write side in tests use MemoryProvider.

func (p *HTTPProvider) LaunchInstance(context.Context, string, map[string]string) (string, error) {
	return "", fmt.Errorf("cloud: LaunchInstance requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) TerminateInstance(context.Context, string) error {
	return fmt.Errorf("cloud: TerminateInstance requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) ListInstances(context.Context, map[string]string) ([]domain.Node, error) {
	return nil, fmt.Errorf("cloud: ListInstances requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) ReadTags(context.Context, string) (map[string]string, error) {
	return nil, fmt.Errorf("cloud: ReadTags requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) WriteTags(context.Context, string, map[string]string) error {
	return fmt.Errorf("cloud: WriteTags requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) RegisterTarget(context.Context, string, int) error {
	return fmt.Errorf("cloud: RegisterTarget requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) DeregisterTarget(context.Context, string, int) error {
	return fmt.Errorf("cloud: DeregisterTarget requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) TargetHealth(context.Context, string, int) (TargetHealth, error) {
	return TargetAbsent, fmt.Errorf("cloud: TargetHealth requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) SendCommand(context.Context, string, []string, time.Duration) (string, error) {
	return "", fmt.Errorf("cloud: SendCommand requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) PollCommand(context.Context, string) (CommandResult, error) {
	return CommandResult{}, fmt.Errorf("cloud: PollCommand requires a provider SDK, not wired — see DESIGN.md")
}
func (p *HTTPProvider) WriteBlob(context.Context, []byte) (string, error) {
	return "", fmt.Errorf("cloud: WriteBlob is served by registry.BlobStore locally, not HTTPProvider")
}
func (p *HTTPProvider) ReadBlob(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("cloud: ReadBlob is served by registry.BlobStore locally, not HTTPProvider")
}

var _ Provider = (*HTTPProvider)(nil)
