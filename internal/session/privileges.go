package session

// Privileges is the account-level privilege bitset stored alongside the user
// record. A session lacking PrivPublic is restricted: hidden from other
// players and limited to the safe handler subset.
type Privileges int64

const (
	PrivPublic              Privileges = 1 << 0
	PrivNormal              Privileges = 1 << 1
	PrivDonor               Privileges = 1 << 2
	PrivAccessAdminPanel    Privileges = 1 << 3
	PrivManageUsers         Privileges = 1 << 4
	PrivBanUsers            Privileges = 1 << 5
	PrivSilenceUsers        Privileges = 1 << 6
	PrivWipeUsers           Privileges = 1 << 7
	PrivManageBeatmaps      Privileges = 1 << 8
	PrivManageServers       Privileges = 1 << 9
	PrivManageSettings      Privileges = 1 << 10
	PrivManageBetaKeys      Privileges = 1 << 11
	PrivManageReports       Privileges = 1 << 12
	PrivManageDocs          Privileges = 1 << 13
	PrivManageBadges        Privileges = 1 << 14
	PrivViewAdminLogs       Privileges = 1 << 15
	PrivManagePrivileges    Privileges = 1 << 16
	PrivSendAlerts          Privileges = 1 << 17
	PrivChatMod             Privileges = 1 << 18
	PrivKickUsers           Privileges = 1 << 19
	PrivPendingVerification Privileges = 1 << 20
	PrivTournamentStaff     Privileges = 1 << 21
)

// Has reports whether all bits in p are set.
func (privs Privileges) Has(p Privileges) bool {
	return privs&p == p
}

// BanchoPrivileges is the client-facing privilege byte sent in presence
// packets, derived from the account privileges.
type BanchoPrivileges uint8

const (
	BanchoPlayer    BanchoPrivileges = 1 << 0
	BanchoModerator BanchoPrivileges = 1 << 1
	BanchoSupporter BanchoPrivileges = 1 << 2
	BanchoOwner     BanchoPrivileges = 1 << 3
	BanchoDeveloper BanchoPrivileges = 1 << 4
)

// BanchoFromPrivileges maps account privileges onto the client privilege
// byte.
func BanchoFromPrivileges(privs Privileges) BanchoPrivileges {
	var b BanchoPrivileges
	if privs.Has(PrivNormal) {
		b |= BanchoPlayer
	}
	if privs.Has(PrivDonor) {
		b |= BanchoSupporter
	}
	if privs.Has(PrivChatMod) {
		b |= BanchoModerator
	}
	if privs.Has(PrivManagePrivileges) {
		b |= BanchoOwner
	}
	if privs.Has(PrivManageSettings) {
		b |= BanchoDeveloper
	}
	return b
}
