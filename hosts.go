package audio_downloader

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/audio-downloader/generic"
)

var (
	ErrDuplicateHost = errors.New("duplicate host name")
	ErrInvalidHost   = errors.New("invalid host")
	ErrNoMatch       = errors.New("no known video host matched the input")
	ErrUnknownHost   = errors.New("unknown host")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

// A HostMatch is the result of a Host recognising a URL.
type HostMatch struct {
	HostName string
	// VideoID is the host's identifier for the video, if the matcher could extract one.
	VideoID string
}

type HostMatchFunc = func(*url.URL) (*HostMatch, error)

// A Host recognises URLs belonging to one video site.
type Host struct {
	Name  string
	Match HostMatchFunc
	// Priority of the matcher, lower (including negative) means matching earlier.
	Priority int16
}

func (h Host) WithPriority(priority int16) Host {
	h.Priority = priority
	return h
}

// A HostRegistry is an ordered collection of Host matchers, used to warn about URLs that are probably not videos.
type HostRegistry struct {
	hosts   []*Host
	hostMap map[string]*Host
}

// Add registers a Host. Host.Name and Host.Match must be set, and Host.Name must be unique within the registry.
func (r *HostRegistry) Add(h Host) error {
	if r.hostMap == nil {
		r.hostMap = make(map[string]*Host)
	}
	if h.Name == "" || h.Match == nil {
		return ErrInvalidHost
	}
	if _, ok := r.hostMap[h.Name]; ok {
		return ErrDuplicateHost
	}
	r.hostMap[h.Name] = &h
	r.hosts = append(r.hosts, r.hostMap[h.Name])
	r.sortByPriority()
	return nil
}

// MustAdd wraps Add but panics if there is an error.
func (r *HostRegistry) MustAdd(h Host) {
	generic.Unwrap_(r.Add(h))
}

// List returns the names of registered hosts in priority order.
func (r *HostRegistry) List() []string {
	names := make([]string, 0, len(r.hosts))
	for _, h := range r.hosts {
		names = append(names, h.Name)
	}
	return names
}

// SetPriority adjusts the priority of a named Host.
func (r *HostRegistry) SetPriority(name string, priority int16) error {
	if h, ok := r.hostMap[name]; ok {
		h.Priority = priority
		r.sortByPriority()
		return nil
	} else {
		return ErrUnknownHost
	}
}

// Match a string against each Host in priority order. If nothing matches, the error wraps ErrNoMatch and every
// matcher's reason.
func (r *HostRegistry) Match(s string) (*HostMatch, error) {
	parsedURL, err := ParseLooseURL(s)
	if err != nil {
		return nil, multierror.Append(ErrNoMatch, err)
	}
	var result error = ErrNoMatch
	for _, h := range r.hosts {
		if match, err := h.Match(parsedURL); match != nil && err == nil {
			match.HostName = h.Name
			return match, nil
		} else if err != nil {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", h.Name)))
		}
	}
	return nil, result
}

func (r *HostRegistry) sortByPriority() {
	sort.SliceStable(r.hosts, func(i, j int) bool {
		return r.hosts[i].Priority < r.hosts[j].Priority
	})
}

// ParseLooseURL parses s as a URL, assuming https:// if the user left the scheme off.
func ParseLooseURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if parsedURL.Hostname() == "" {
		return nil, fmt.Errorf("no hostname in %q", s)
	}
	return parsedURL, nil
}

var youtubeHostnames = generic.NewSet(
	"youtube.com",
	"www.youtube.com",
	"m.youtube.com",
	"music.youtube.com",
	"youtu.be",
	"www.youtu.be",
)

// MatchYouTube recognises youtube.com and youtu.be URLs. The video ID is filled in when it can be extracted, but
// playlist and channel URLs still match.
func MatchYouTube(u *url.URL) (*HostMatch, error) {
	if !youtubeHostnames.Contains(strings.ToLower(u.Hostname())) {
		return nil, fmt.Errorf("unrecognised hostname %v", u.Hostname())
	}
	match := &HostMatch{}
	if id, err := youtube.ExtractVideoID(u.String()); err == nil {
		match.VideoID = id
	}
	return match, nil
}

func NewYouTubeHost() Host {
	return Host{Name: "youtube", Match: MatchYouTube}
}

var DefaultHostRegistry HostRegistry

func init() {
	DefaultHostRegistry.MustAdd(NewYouTubeHost())
}
