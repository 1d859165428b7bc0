package kernel

// MaxAuthorizedCallers bounds the relayer allowlist carried in Config, so that
// AddAuthorizedCaller/RemoveAuthorizedCaller operate on a fixed-capacity set
// with a predictable account size, the same constraint the original on-chain
// record was subject to.
const MaxAuthorizedCallers = 32

// OracleParams holds the bonded-economics parameters of the optimistic oracle.
type OracleParams struct {
	ProposerBond               uint64
	ChallengerBond             uint64
	ChallengeWindowSeconds     int64
	FinalizationDeadlineSeconds int64
}

// Config is the protocol-wide singleton record: admin keys, the base currency
// mint, collaborator program identities, the fee schedule and the oracle's
// bonded-economics parameters.
type Config struct {
	Admin              Identity
	OracleAdmin        Identity
	BaseCurrency       Identity
	VaultProgram       Identity
	FundProgram        Identity
	Paused             bool
	ProtocolFeeBps     uint16
	Oracle             OracleParams
	AuthorizedCallers  []Identity
}

// NewConfig builds the initial protocol Config, corresponding to the
// Initialize instruction.
func NewConfig(admin, oracleAdmin, baseCurrency, vaultProgram, fundProgram Identity, protocolFeeBps uint16, oracle OracleParams) (*Config, error) {
	if isZeroIdentity(admin) || isZeroIdentity(oracleAdmin) || isZeroIdentity(baseCurrency) {
		return nil, newErr("NewConfig", CodeInvalidAccountData)
	}
	if protocolFeeBps > uint16(FeeDenominatorBps) {
		return nil, newErr("NewConfig", CodeInvalidOrderAmount)
	}
	if oracle.ChallengeWindowSeconds <= 0 || oracle.FinalizationDeadlineSeconds <= 0 {
		return nil, newErr("NewConfig", CodeInvalidResolutionTime)
	}
	return &Config{
		Admin:        admin,
		OracleAdmin:  oracleAdmin,
		BaseCurrency: baseCurrency,
		VaultProgram: vaultProgram,
		FundProgram:  fundProgram,
		ProtocolFeeBps: protocolFeeBps,
		Oracle:       oracle,
	}, nil
}

// Reinitialize implements ReinitializeConfig: the admin may rotate the
// collaborator program identities and fee schedule in one shot, but not the
// admin keys themselves (use UpdateAdmin/UpdateOracleAdmin for that).
func (c *Config) Reinitialize(caller Identity, vaultProgram, fundProgram Identity, protocolFeeBps uint16, oracle OracleParams) error {
	if caller != c.Admin {
		return newErr("ReinitializeConfig", CodeUnauthorized)
	}
	if protocolFeeBps > uint16(FeeDenominatorBps) {
		return newErr("ReinitializeConfig", CodeInvalidOrderAmount)
	}
	c.VaultProgram = vaultProgram
	c.FundProgram = fundProgram
	c.ProtocolFeeBps = protocolFeeBps
	c.Oracle = oracle
	return nil
}

func (c *Config) requireAdmin(caller Identity, op string) error {
	if caller != c.Admin {
		return newErr(op, CodeUnauthorized)
	}
	return nil
}

func (c *Config) requireOracleAdmin(caller Identity, op string) error {
	if caller != c.OracleAdmin {
		return newErr(op, CodeUnauthorized)
	}
	return nil
}

// UpdateAdmin rotates the protocol admin key.
func (c *Config) UpdateAdmin(caller, newAdmin Identity) error {
	if err := c.requireAdmin(caller, "UpdateAdmin"); err != nil {
		return err
	}
	if isZeroIdentity(newAdmin) {
		return newErr("UpdateAdmin", CodeInvalidAccountData)
	}
	c.Admin = newAdmin
	return nil
}

// UpdateOracleAdmin rotates the oracle admin key.
func (c *Config) UpdateOracleAdmin(caller, newOracleAdmin Identity) error {
	if err := c.requireAdmin(caller, "UpdateOracleAdmin"); err != nil {
		return err
	}
	if isZeroIdentity(newOracleAdmin) {
		return newErr("UpdateOracleAdmin", CodeInvalidAccountData)
	}
	c.OracleAdmin = newOracleAdmin
	return nil
}

// SetPaused sets or clears the global Paused flag. Admin only. The flag is
// stored on Config and persisted with it; no operation in this package and no
// internal/node dispatch handler reads it, so setting it does not block any
// instruction.
func (c *Config) SetPaused(caller Identity, paused bool) error {
	if err := c.requireAdmin(caller, "SetPaused"); err != nil {
		return err
	}
	c.Paused = paused
	return nil
}

// UpdateOracleConfig lets the oracle admin retune bonded-economics parameters
// without touching the rest of Config.
func (c *Config) UpdateOracleConfig(caller Identity, oracle OracleParams) error {
	if err := c.requireOracleAdmin(caller, "UpdateOracleConfig"); err != nil {
		return err
	}
	if oracle.ChallengeWindowSeconds <= 0 || oracle.FinalizationDeadlineSeconds <= 0 {
		return newErr("UpdateOracleConfig", CodeInvalidResolutionTime)
	}
	c.Oracle = oracle
	return nil
}

// IsAuthorizedCaller reports whether id is on the relayer allowlist.
func (c *Config) IsAuthorizedCaller(id Identity) bool {
	for _, a := range c.AuthorizedCallers {
		if a == id {
			return true
		}
	}
	return false
}

// AddAuthorizedCaller appends id to the relayer allowlist.
func (c *Config) AddAuthorizedCaller(caller, id Identity) error {
	if err := c.requireAdmin(caller, "AddAuthorizedCaller"); err != nil {
		return err
	}
	if len(c.AuthorizedCallers) >= MaxAuthorizedCallers {
		return newErr("AddAuthorizedCaller", CodeInvalidAccountData)
	}
	if c.IsAuthorizedCaller(id) {
		return nil
	}
	c.AuthorizedCallers = append(c.AuthorizedCallers, id)
	return nil
}

// RemoveAuthorizedCaller removes id from the relayer allowlist.
func (c *Config) RemoveAuthorizedCaller(caller, id Identity) error {
	if err := c.requireAdmin(caller, "RemoveAuthorizedCaller"); err != nil {
		return err
	}
	for i, a := range c.AuthorizedCallers {
		if a == id {
			c.AuthorizedCallers = append(c.AuthorizedCallers[:i], c.AuthorizedCallers[i+1:]...)
			return nil
		}
	}
	return nil
}

// ResolveActingAs implements the relayer-variant instructions: a transaction
// signed by an authorized caller acting on behalf of onBehalfOf is treated as
// if onBehalfOf itself had signed, provided caller is on the allowlist. Direct
// (non-relayer) calls pass onBehalfOf equal to the zero Identity and the
// signer is used as-is.
func (c *Config) ResolveActingAs(caller, onBehalfOf Identity) (Identity, error) {
	if isZeroIdentity(onBehalfOf) || onBehalfOf == caller {
		return caller, nil
	}
	if !c.IsAuthorizedCaller(caller) {
		return ZeroIdentity, newErr("ResolveActingAs", CodeUnauthorized)
	}
	return onBehalfOf, nil
}
