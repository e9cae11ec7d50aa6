package ariadne

// Home for stringers and other telemetry related distractions
func (k RegistrationErrorKind) String() string {
	switch k {
	case InvalidMainchainSignature:
		return "InvalidMainchainSignature"
	case InvalidSidechainSignature:
		return "InvalidSidechainSignature"
	case InvalidTxInput:
		return "InvalidTxInput"
	case InvalidMainchainPubKey:
		return "InvalidMainchainPubKey"
	case InvalidSidechainPubKey:
		return "InvalidSidechainPubKey"
	case InvalidAuraKey:
		return "InvalidAuraKey"
	case InvalidGrandpaKey:
		return "InvalidGrandpaKey"
	case UnknownStake:
		return "UnknownStake"
	case InvalidStake:
		return "InvalidStake"
	default:
		return "<unknown>"
	}
}

func (k MemberKind) String() string {
	switch k {
	case MemberPermissioned:
		return "Permissioned"
	case MemberRegistered:
		return "Registered"
	default:
		return "<unknown>"
	}
}
