package cache

import (
	"net/http"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "one hour remaining",
			expires: time.Now().Add(1 * time.Hour),
			wantMin: 59 * time.Minute,
			wantMax: 61 * time.Minute,
		},
		{
			name:    "already expired",
			expires: time.Now().Add(-1 * time.Hour),
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:    "5 minutes remaining",
			expires: time.Now().Add(5 * time.Minute),
			wantMin: 4*time.Minute + 59*time.Second,
			wantMax: 5*time.Minute + 1*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			got := entry.TTL()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	tests := []struct {
		name     string
		cachedAt time.Time
		wantMin  time.Duration
		wantMax  time.Duration
	}{
		{
			name:    "never stored",
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:     "stored two minutes ago",
			cachedAt: time.Now().Add(-2 * time.Minute),
			wantMin:  2 * time.Minute,
			wantMax:  2*time.Minute + time.Second,
		},
		{
			name:     "just stored",
			cachedAt: time.Now(),
			wantMin:  0,
			wantMax:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{CachedAt: tt.cachedAt}
			got := entry.Age()
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Age() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEntry_JSONOmitsEmptyValidators(t *testing.T) {
	entry := &Entry{
		Data:       []byte(`{"success":true,"data":{}}`),
		Expires:    time.Now().Add(time.Minute),
		StatusCode: 200,
		CachedAt:   time.Now(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, name := range []string{"etag", "headers"} {
		if _, ok := members[name]; ok {
			t.Errorf("member %q should be omitted when empty", name)
		}
	}

	entry.ETag = `"v1"`
	entry.Headers = http.Header{"Content-Type": []string{"application/json"}}
	raw, err = json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded Entry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.ETag != `"v1"` {
		t.Errorf("ETag = %q, want %q", decoded.ETag, `"v1"`)
	}
	if !ShouldMakeConditionalRequest(&decoded) {
		t.Error("decoded entry with an ETag should allow a conditional request")
	}
}
