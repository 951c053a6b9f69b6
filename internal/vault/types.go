package vault

// Principal identifies an actor: a creator, controller, depositor, or
// entitlement recipient. Authorization is identity comparison on Principals.
type Principal string

// Unit identifies a fungible unit type held in custody.
type Unit string

// Native is the reserved unit identifier for the native asset.
// DepositUnit rejects it; native custody moves through DepositNative.
const Native Unit = "native"

// Status is the lifecycle phase of a State.
// Collapsed and Cancelled are terminal; a State transitions exactly once.
type Status int

const (
	StatusUnknown Status = iota
	StatusSuperposed
	StatusCollapsed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSuperposed:
		return "superposed"
	case StatusCollapsed:
		return "collapsed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCollapsed || s == StatusCancelled
}

// Mechanism is the trigger type that resolved (or may resolve) a State.
//
// The field on State records the mechanism declared at creation until the
// state collapses; at collapse it is overwritten with the mechanism actually
// used, which matters for audit when a cascade forces the collapse.
type Mechanism int

const (
	MechanismUnknown Mechanism = iota
	MechanismManual
	MechanismTimeExpiry
	MechanismConditional
	MechanismProbabilistic
	MechanismEntanglementForced
)

func (m Mechanism) String() string {
	switch m {
	case MechanismManual:
		return "manual"
	case MechanismTimeExpiry:
		return "time_expiry"
	case MechanismConditional:
		return "conditional"
	case MechanismProbabilistic:
		return "probabilistic"
	case MechanismEntanglementForced:
		return "entanglement_forced"
	default:
		return "unknown"
	}
}

// ParseMechanism converts the wire/CLI spelling back to a Mechanism.
func ParseMechanism(s string) (Mechanism, bool) {
	switch s {
	case "manual":
		return MechanismManual, true
	case "time_expiry":
		return MechanismTimeExpiry, true
	case "conditional":
		return MechanismConditional, true
	case "probabilistic":
		return MechanismProbabilistic, true
	case "entanglement_forced":
		return MechanismEntanglementForced, true
	default:
		return MechanismUnknown, false
	}
}

// NoOutcome is the ChosenOutcome value of a state that has not collapsed.
const NoOutcome = -1

// State is the central entity: a custody record awaiting resolution.
type State struct {
	ID         string
	Creator    Principal
	Controller Principal

	Status Status

	// Expiry is an absolute unix-seconds deadline; 0 means no deadline.
	Expiry int64

	// ConditionPayload is opaque bytes compared by exact equality for
	// conditional resolution.
	ConditionPayload []byte

	// PotentialOutcomes is the non-empty ordered set of outcome indices the
	// state may resolve to, validated against the policy's outcome universe
	// at creation.
	PotentialOutcomes []int

	// ChosenOutcome is NoOutcome while superposed and a member of
	// PotentialOutcomes once collapsed. It never changes after being set.
	ChosenOutcome int

	Mechanism Mechanism

	// NativeBalance and UnitBalances are the held custody amounts. They are
	// drawn down to zero exactly once, at collapse or cancellation.
	NativeBalance int64
	UnitBalances  map[Unit]int64

	// DepositedUnits lists unit types in first-deposit order. The balance
	// map alone cannot be iterated deterministically; resolution walks this
	// list. Cleared whenever balances are zeroed.
	DepositedUnits []Unit

	// EntangledWith is the id of the reciprocally linked state, or empty.
	EntangledWith string

	// CreatedAt is the unix-seconds clock reading at creation.
	CreatedAt int64
}

// Superposed reports whether the state can still be mutated.
func (s *State) Superposed() bool {
	return s.Status == StatusSuperposed
}

// Entangled reports whether the state has a recorded link.
func (s *State) Entangled() bool {
	return s.EntangledWith != ""
}

// HasOutcome reports whether idx is a member of the potential-outcome set.
func (s *State) HasOutcome(idx int) bool {
	for _, o := range s.PotentialOutcomes {
		if o == idx {
			return true
		}
	}
	return false
}

// FirstOutcome returns the first entry of the potential-outcome set.
// Creation guarantees the set is non-empty.
func (s *State) FirstOutcome() int {
	return s.PotentialOutcomes[0]
}

// LastOutcome returns the last entry of the potential-outcome set.
func (s *State) LastOutcome() int {
	return s.PotentialOutcomes[len(s.PotentialOutcomes)-1]
}

// Balance returns the held amount for a unit, with Native selecting the
// native balance.
func (s *State) Balance(u Unit) int64 {
	if u == Native {
		return s.NativeBalance
	}
	return s.UnitBalances[u]
}

// Expired reports whether the deadline is set and now has reached it.
func (s *State) Expired(now int64) bool {
	return s.Expiry != 0 && now >= s.Expiry
}

// Entitlement is a claimable amount owed to a recipient from a resolved
// state. Created only by resolution (or a failed cancel refund), decremented
// to zero only by Claim.
type Entitlement struct {
	StateID   string
	Recipient Principal
	Unit      Unit
	Amount    int64
}
