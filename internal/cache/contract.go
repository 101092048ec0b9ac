package cache

import "encoding/json"

// Contract is the serialized form of the multi-credential cache. The top
// level field names are shared with other implementations of the same schema
// and must not change.
type Contract struct {
	AccessTokens  map[string]AccessToken  `json:"AccessToken,omitempty"`
	RefreshTokens map[string]RefreshToken `json:"RefreshToken,omitempty"`
	IDTokens      map[string]IDToken      `json:"IdToken,omitempty"`
	Accounts      map[string]Account      `json:"Account,omitempty"`
	AppMetadata   map[string]AppMetadata  `json:"AppMetadata,omitempty"`
}

// NewContract returns a Contract with every map allocated.
func NewContract() *Contract {
	return &Contract{
		AccessTokens:  map[string]AccessToken{},
		RefreshTokens: map[string]RefreshToken{},
		IDTokens:      map[string]IDToken{},
		Accounts:      map[string]Account{},
		AppMetadata:   map[string]AppMetadata{},
	}
}

func (c *Contract) copy() *Contract {
	n := &Contract{
		AccessTokens:  make(map[string]AccessToken, len(c.AccessTokens)),
		RefreshTokens: make(map[string]RefreshToken, len(c.RefreshTokens)),
		IDTokens:      make(map[string]IDToken, len(c.IDTokens)),
		Accounts:      make(map[string]Account, len(c.Accounts)),
		AppMetadata:   make(map[string]AppMetadata, len(c.AppMetadata)),
	}
	for k, v := range c.AccessTokens {
		n.AccessTokens[k] = v
	}
	for k, v := range c.RefreshTokens {
		n.RefreshTokens[k] = v
	}
	for k, v := range c.IDTokens {
		n.IDTokens[k] = v
	}
	for k, v := range c.Accounts {
		n.Accounts[k] = v
	}
	for k, v := range c.AppMetadata {
		n.AppMetadata[k] = v
	}
	return n
}

// Marshal serializes the contract for persistent storage.
func (c *Contract) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalContract parses a serialized contract, allocating any maps the
// payload omitted.
func UnmarshalContract(b []byte) (*Contract, error) {
	c := NewContract()
	if err := json.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if c.AccessTokens == nil {
		c.AccessTokens = map[string]AccessToken{}
	}
	if c.RefreshTokens == nil {
		c.RefreshTokens = map[string]RefreshToken{}
	}
	if c.IDTokens == nil {
		c.IDTokens = map[string]IDToken{}
	}
	if c.Accounts == nil {
		c.Accounts = map[string]Account{}
	}
	if c.AppMetadata == nil {
		c.AppMetadata = map[string]AppMetadata{}
	}
	return c, nil
}
