package ariadne

// RegistrationStatus reports how one registration attempt was judged
type RegistrationStatus struct {
	Registration RegistrationData
	// Err is nil for a valid attempt, otherwise a *RegistrationError
	Err error
	// Active is set on the single attempt that counts for selection
	Active bool
	// Superseded is set on valid attempts replaced by a later one
	Superseded bool
}

func (s RegistrationStatus) Valid() bool { return s.Err == nil }

// CandidateStatus is the full diagnostic picture for one stake pool
type CandidateStatus struct {
	StakePoolKey StakePoolKey
	Stake        *StakeDelegation
	// StakeErr is UnknownStake or InvalidStake when the stake disqualifies
	// every registration.
	StakeErr      error
	Registrations []RegistrationStatus
}

// Statuses explains the outcome of Validate for raw. Attempts are reported
// in chronological order.
func (v *RegistrationValidator) Statuses(raw CandidateRegistrations) CandidateStatus {

	rs := append([]RegistrationData{}, raw.Registrations...)
	sortRegistrations(rs)

	cs := CandidateStatus{StakePoolKey: raw.StakePoolKey, Stake: raw.Stake}
	_, cs.StakeErr = ValidateStake(raw.Stake)

	cs.Registrations = make([]RegistrationStatus, len(rs))
	activeIdx := -1
	for i := range rs {
		_, _, err := v.ValidateRegistrationData(raw.StakePoolKey, &rs[i])
		cs.Registrations[i] = RegistrationStatus{Registration: rs[i], Err: err}
		// equal keys keep the first valid attempt, as Validate does
		if err == nil &&
			(activeIdx < 0 || rs[activeIdx].UtxoInfo.OrderingKey().Less(rs[i].UtxoInfo.OrderingKey())) {
			activeIdx = i
		}
	}

	for i := range cs.Registrations {
		if i != activeIdx && cs.Registrations[i].Valid() {
			cs.Registrations[i].Superseded = true
		}
	}
	if activeIdx >= 0 && cs.StakeErr == nil {
		cs.Registrations[activeIdx].Active = true
	}
	return cs
}

// RegistrationStatuses finds the statuses for pool among raws. ok is false if
// the pool made no registrations.
func (v *RegistrationValidator) RegistrationStatuses(
	raws []CandidateRegistrations, pool StakePoolKey) (CandidateStatus, bool) {

	for _, raw := range raws {
		if raw.StakePoolKey == pool {
			return v.Statuses(raw), true
		}
	}
	return CandidateStatus{}, false
}
