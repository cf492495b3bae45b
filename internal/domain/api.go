package domain

// ============================================================
// Request / Response types (matches frontend API contract)
// ============================================================

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body for successful register/login/refresh calls.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CreateOptionRequest is the body for POST /v1/options.
type CreateOptionRequest struct {
	Kind  OptionKind `json:"kind"`
	Label string     `json:"label"`
	Value string     `json:"value"`
}

// ResolveResponse is the body for GET /v1/resolve/{qrId}. Destination is
// the dereferenceable URI the scanner should navigate to after
// DelaySeconds.
type ResolveResponse struct {
	QRID         string     `json:"qrId"`
	Kind         OptionKind `json:"kind"`
	Label        string     `json:"label"`
	Value        string     `json:"value"`
	Destination  string     `json:"destination"`
	DelaySeconds int        `json:"delaySeconds"`
}

// QROverviewResponse is the body for GET /v1/me/qr. Mapping is the
// persisted snapshot the resolver serves; nil when no option is active.
type QROverviewResponse struct {
	QRID    string          `json:"qrId"`
	ScanURL string          `json:"scanUrl"`
	Options []ProfileOption `json:"options"`
	Mapping *MappingRecord  `json:"mapping,omitempty"`
}

// ResolverMetrics is the snapshot served by GET /v1/metrics/resolver.
type ResolverMetrics struct {
	TotalResolves int64   `json:"totalResolves"`
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	HitRate       float64 `json:"hitRate"`
	CacheHitRate  float64 `json:"cacheHitRate"`
}

// SuccessResponse is a generic message envelope.
type SuccessResponse struct {
	Message string `json:"message"`
}
