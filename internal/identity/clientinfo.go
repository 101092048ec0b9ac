// Package identity derives stable account identity from the provider's
// client-info blob and ID-token claims.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ClientInfo is the provider-issued blob pairing an object id with a tenant
// id. It is the strongest signal that two sign-ins are the same account.
type ClientInfo struct {
	UID  string `json:"uid"`
	UTID string `json:"utid"`
}

// DecodeClientInfo parses the raw base64url blob. Unpadded input is the norm
// but padded blobs from older providers are tolerated.
func DecodeClientInfo(raw string) (ClientInfo, error) {
	if raw == "" {
		return ClientInfo{}, fmt.Errorf("client info is empty")
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return ClientInfo{}, fmt.Errorf("failed to decode client info: %w", err)
		}
	}
	var ci ClientInfo
	if err := json.Unmarshal(data, &ci); err != nil {
		return ClientInfo{}, fmt.Errorf("failed to parse client info: %w", err)
	}
	return ci, nil
}

// HomeAccountID returns the "uid.utid" identifier, or "" when either half is
// missing.
func (c ClientInfo) HomeAccountID() string {
	if c.UID == "" || c.UTID == "" {
		return ""
	}
	return c.UID + "." + c.UTID
}

// ClientInfoFromHomeAccountID reconstructs the encoded blob for a "uid.utid"
// home account id, for lookups that filter on the encoded form. Returns ""
// when the id does not carry both halves.
func ClientInfoFromHomeAccountID(homeAccountID string) string {
	uid, utid, ok := strings.Cut(homeAccountID, ".")
	if !ok || uid == "" || utid == "" {
		return ""
	}
	b, err := json.Marshal(ClientInfo{UID: uid, UTID: utid})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DeriveHomeAccountID picks the account identifier from whatever identity
// signals are present. The priority order decides whether two sign-ins are
// recognized as the same account and must not be reordered:
// client-info > subject > UPN > email > empty.
func DeriveHomeAccountID(rawClientInfo, subject, upn, email string) string {
	if ci, err := DecodeClientInfo(rawClientInfo); err == nil {
		if id := ci.HomeAccountID(); id != "" {
			return id
		}
	}
	if subject != "" {
		return subject
	}
	if upn != "" {
		return upn
	}
	if email != "" {
		return email
	}
	return ""
}
