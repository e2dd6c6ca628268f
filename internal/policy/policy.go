package policy

// Kind identifies a resource type.
type Kind int

const (
	Buildings Kind = iota + 1
	Apartments
	AvailableApartments
	Tenants
	Appointments
	Messages
	Events
	Profile
	Lookups
)

// Action is what an actor attempts on a resource.
type Action int

const (
	ActionList Action = iota + 1
	ActionView
	ActionCreate
	ActionEdit
	ActionDelete
	ActionTransition
)

// Party names a user-reference field on a record.
type Party int

const (
	PartyManager Party = iota + 1
	PartyTenant
	PartySender
	PartyReceiver
)

// Decision is the outcome of an access check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

// Resource is the target of an access check. Collection-level resources
// carry no parties; record-scoped ones set Record and carry the user ids
// referenced by the record. A record missing a required party is denied.
type Resource struct {
	Kind    Kind
	Record  bool
	Parties map[Party]int64
}

// Collection returns the resource for kind as a whole.
func Collection(kind Kind) Resource {
	return Resource{Kind: kind}
}

// AppointmentRecord describes a single appointment. managerID may be nil
// when the building had no manager at booking time.
func AppointmentRecord(managerID *int64, tenantID int64) Resource {
	parties := map[Party]int64{PartyTenant: tenantID}
	if managerID != nil {
		parties[PartyManager] = *managerID
	}
	return Resource{Kind: Appointments, Record: true, Parties: parties}
}

// MessageRecord describes a single message.
func MessageRecord(senderID, receiverID int64) Resource {
	return Resource{Kind: Messages, Record: true, Parties: map[Party]int64{
		PartySender:   senderID,
		PartyReceiver: receiverID,
	}}
}

type ruleKey struct {
	kind   Kind
	action Action
}

type roleSet map[Role]bool

func roles(rs ...Role) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = true
	}
	return set
}

var (
	managerOnly     = roles(RoleManager)
	tenantOnly      = roles(RoleTenant)
	ownerOnly       = roles(RoleOwner)
	managerOrTenant = roles(RoleManager, RoleTenant)
	managerOrOwner  = roles(RoleManager, RoleOwner)
	anyRole         = roles(RoleOwner, RoleManager, RoleTenant)
)

// roleRules gates every (kind, action) pair. Pairs not listed are denied.
var roleRules = map[ruleKey]roleSet{
	{Buildings, ActionList}:   managerOnly,
	{Buildings, ActionView}:   managerOnly,
	{Buildings, ActionCreate}: managerOnly,
	{Buildings, ActionEdit}:   managerOnly,
	{Buildings, ActionDelete}: managerOnly,

	{Apartments, ActionList}:   managerOnly,
	{Apartments, ActionView}:   managerOnly,
	{Apartments, ActionCreate}: managerOnly,
	{Apartments, ActionEdit}:   managerOnly,
	{Apartments, ActionDelete}: managerOnly,

	{AvailableApartments, ActionList}: tenantOnly,
	{AvailableApartments, ActionView}: tenantOnly,

	{Tenants, ActionList}:   ownerOnly,
	{Tenants, ActionView}:   ownerOnly,
	{Tenants, ActionEdit}:   ownerOnly,
	{Tenants, ActionDelete}: ownerOnly,

	{Appointments, ActionList}:       managerOrTenant,
	{Appointments, ActionView}:       managerOrTenant,
	{Appointments, ActionCreate}:     tenantOnly,
	{Appointments, ActionTransition}: managerOnly,

	{Messages, ActionList}:   managerOrTenant,
	{Messages, ActionView}:   managerOrTenant,
	{Messages, ActionCreate}: managerOrTenant,

	{Events, ActionList}:   managerOrOwner,
	{Events, ActionView}:   managerOrOwner,
	{Events, ActionCreate}: managerOnly,
	{Events, ActionEdit}:   managerOnly,
	{Events, ActionDelete}: managerOnly,

	{Profile, ActionView}: anyRole,
	{Lookups, ActionList}: anyRole,
}

// partyRules lists, for record-scoped checks, which party fields the
// actor must match. Applied on top of roleRules.
var partyRules = map[ruleKey][]Party{
	{Appointments, ActionView}:       {PartyManager, PartyTenant},
	{Appointments, ActionTransition}: {PartyManager},
	{Messages, ActionView}:           {PartySender, PartyReceiver},
}

// Decide evaluates whether actor may perform action on res. It has no
// side effects and depends only on its arguments.
func Decide(actor Actor, action Action, res Resource) Decision {
	if !actor.Authenticated() {
		return Deny
	}
	key := ruleKey{res.Kind, action}
	if !roleRules[key][actor.Role] {
		return Deny
	}
	if !res.Record {
		return Allow
	}
	required, scoped := partyRules[key]
	if !scoped {
		return Allow
	}
	for _, p := range required {
		if id, ok := res.Parties[p]; ok && actor.Is(id) {
			return Allow
		}
	}
	return Deny
}

// RolesFor returns the roles permitted to reach (kind, action) at all.
// Used by the HTTP layer to gate routes before loading any record.
func RolesFor(kind Kind, action Action) []Role {
	set := roleRules[ruleKey{kind, action}]
	out := make([]Role, 0, len(set))
	for _, r := range []Role{RoleOwner, RoleManager, RoleTenant} {
		if set[r] {
			out = append(out, r)
		}
	}
	return out
}
