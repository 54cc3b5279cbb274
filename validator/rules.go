package validator

type action int

const (
	none action = iota
	notify
	invite
)

func (a action) String() string {
	return [...]string{"none", "notify", "invite"}[a]
}

// facts is what is known about a form response after looking up the user. Facts that are not
// needed to reach a decision are not looked up (e.g. challenge team membership is only checked
// for users who are not already in the data access team).
type facts struct {
	resolved   bool
	dataAccess bool
	challenge  bool
	pending    bool
}

type rule struct {
	name    string
	when    func(facts) bool
	outcome Outcome
	action  action
}

// Evaluated in order, first match wins. An 'invite' that fails is reported to the user with
// the 'Error sending invite' notification.
var rules = []rule{
	{
		name:    "unknown user",
		when:    func(f facts) bool { return !f.resolved },
		outcome: UsernameNotFound,
		action:  none,
	},
	{
		name:    "data access team member",
		when:    func(f facts) bool { return f.dataAccess },
		outcome: AccessAlreadyGranted,
		action:  notify,
	},
	{
		name:    "invite already sent",
		when:    func(f facts) bool { return f.challenge && f.pending },
		outcome: PendingInvite,
		action:  notify,
	},
	{
		name:    "registered for challenge",
		when:    func(f facts) bool { return f.challenge },
		outcome: InviteSent,
		action:  invite,
	},
	{
		name:    "not registered",
		when:    func(f facts) bool { return true },
		outcome: MissingRegistration,
		action:  notify,
	},
}

func decide(f facts) rule {
	for _, r := range rules {
		if r.when(f) {
			return r
		}
	}

	return rules[len(rules)-1]
}
