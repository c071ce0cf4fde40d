package core

// HookName identifies an extension point raised by the hub
type HookName string

// All hooks the hub raises
const (
	OnTimer                   HookName = "OnTimer"
	OnParsedMsgChat           HookName = "OnParsedMsgChat"
	OnParsedMsgPM             HookName = "OnParsedMsgPM"
	OnParsedMsgSearch         HookName = "OnParsedMsgSearch"
	OnParsedMsgSR             HookName = "OnParsedMsgSR"
	OnParsedMsgMyINFO         HookName = "OnParsedMsgMyINFO"
	OnParsedMsgValidateNick   HookName = "OnParsedMsgValidateNick"
	OnParsedMsgConnectToMe    HookName = "OnParsedMsgConnectToMe"
	OnParsedMsgRevConnectToMe HookName = "OnParsedMsgRevConnectToMe"
	OnParsedMsgSupports       HookName = "OnParsedMsgSupports"
	OnUserLogin               HookName = "OnUserLogin"
	OnUserLogout              HookName = "OnUserLogout"
	OnUserDisconnected        HookName = "OnUserDisconnected"
	OnNewConn                 HookName = "OnNewConn"
	OnCloseConn               HookName = "OnCloseConn"
	OnHubCommand              HookName = "OnHubCommand"
	OnOperatorCommand         HookName = "OnOperatorCommand"
	OnOperatorKicks           HookName = "OnOperatorKicks"
	OnOperatorDrops           HookName = "OnOperatorDrops"
	OnValidateTag             HookName = "OnValidateTag"
	OnUserInList              HookName = "OnUserInList"
	OnUnknownMsg              HookName = "OnUnknownMsg"
	OnFlood                   HookName = "OnFlood"
)

// HookSpec describes a hook with its argument shape
type HookSpec struct {
	Name        HookName
	Description string
	// Args lists the fields of the hook's event record, in call order
	Args []string
}

var hookCatalog = []HookSpec{
	{OnTimer, "Periodic timer tick", []string{"msec"}},
	{OnParsedMsgChat, "Main chat message received", []string{"nick", "message"}},
	{OnParsedMsgPM, "Private message received", []string{"nick", "message", "other_nick"}},
	{OnParsedMsgSearch, "Search request received", []string{"nick", "query"}},
	{OnParsedMsgSR, "Search result received", []string{"nick", "result"}},
	{OnParsedMsgMyINFO, "MyINFO message received", []string{"nick"}},
	{OnParsedMsgValidateNick, "Nick validation request", []string{"nick"}},
	{OnParsedMsgConnectToMe, "ConnectToMe request", []string{"nick", "ip", "port"}},
	{OnParsedMsgRevConnectToMe, "RevConnectToMe request", []string{"nick", "other_nick"}},
	{OnParsedMsgSupports, "Supports message received", []string{"ip", "message", "back"}},
	{OnUserLogin, "User logged in", []string{"nick"}},
	{OnUserLogout, "User logged out", []string{"nick"}},
	{OnUserDisconnected, "User disconnected", []string{"nick"}},
	{OnNewConn, "New connection established", []string{"ip"}},
	{OnCloseConn, "Connection closed", []string{"ip"}},
	{OnHubCommand, "Hub command received", []string{"nick", "command", "class", "in_pm", "prefix"}},
	{OnOperatorCommand, "Operator command received", []string{"nick", "command", "class", "in_pm"}},
	{OnOperatorKicks, "Operator kicked a user", []string{"op_nick", "nick", "reason"}},
	{OnOperatorDrops, "Operator dropped a user", []string{"op_nick", "nick", "reason"}},
	{OnValidateTag, "Validate user tag", []string{"nick", "tag"}},
	{OnUserInList, "User added to user list", []string{"nick"}},
	{OnUnknownMsg, "Unknown protocol message received", []string{"nick", "message"}},
	{OnFlood, "Flood detected", []string{"nick", "message"}},
}

// AllHooks returns the hook catalogue in declaration order
func AllHooks() []HookSpec {
	out := make([]HookSpec, len(hookCatalog))
	copy(out, hookCatalog)
	return out
}

// HookNames returns the names of all hooks
func HookNames() []HookName {
	names := make([]HookName, len(hookCatalog))
	for i, h := range hookCatalog {
		names[i] = h.Name
	}
	return names
}

// IsValidHook checks if a hook name is part of the catalogue
func IsValidHook(name HookName) bool {
	for _, h := range hookCatalog {
		if h.Name == name {
			return true
		}
	}
	return false
}

// Event is a typed argument record for one hook invocation.
// The set of implementations is closed: one record type per hook.
type Event interface {
	Hook() HookName
}

// TimerEvent carries the milliseconds elapsed since the previous tick
type TimerEvent struct{ Msec int64 }

// ChatEvent is a main chat line
type ChatEvent struct{ Nick, Message string }

// PrivateMessageEvent is a private message from Nick to OtherNick
type PrivateMessageEvent struct{ Nick, Message, OtherNick string }

// SearchEvent is a search request
type SearchEvent struct{ Nick, Query string }

// SearchResultEvent is a search result
type SearchResultEvent struct{ Nick, Result string }

// MyINFOEvent is a MyINFO update
type MyINFOEvent struct{ Nick string }

// ValidateNickEvent is a nick validation request
type ValidateNickEvent struct{ Nick string }

// ConnectToMeEvent is an active connection request
type ConnectToMeEvent struct {
	Nick string
	IP   string
	Port int
}

// RevConnectToMeEvent is a passive connection request
type RevConnectToMeEvent struct{ Nick, OtherNick string }

// SupportsEvent is a protocol extension negotiation
type SupportsEvent struct{ IP, Message, Back string }

// UserLoginEvent is raised once a user finished logging in
type UserLoginEvent struct{ Nick string }

// UserLogoutEvent is raised when a user leaves
type UserLogoutEvent struct{ Nick string }

// UserDisconnectedEvent is raised when a user connection drops
type UserDisconnectedEvent struct{ Nick string }

// NewConnEvent is raised on a new TCP connection
type NewConnEvent struct{ IP string }

// CloseConnEvent is raised when a connection closes
type CloseConnEvent struct{ IP string }

// HubCommandEvent is a command typed by a user. Class is the caller's
// privilege level, Prefix the command marker the user typed.
type HubCommandEvent struct {
	Nick    string
	Command string
	Class   int
	InPM    bool
	Prefix  string
}

// OperatorCommandEvent is a command typed by an operator
type OperatorCommandEvent struct {
	Nick    string
	Command string
	Class   int
	InPM    bool
}

// OperatorKicksEvent is raised when an operator kicks a user
type OperatorKicksEvent struct{ OpNick, Nick, Reason string }

// OperatorDropsEvent is raised when an operator drops a user
type OperatorDropsEvent struct{ OpNick, Nick, Reason string }

// ValidateTagEvent carries a client tag to validate
type ValidateTagEvent struct{ Nick, Tag string }

// UserInListEvent is raised when a user is added to the user list
type UserInListEvent struct{ Nick string }

// UnknownMsgEvent carries a protocol message the hub did not recognize
type UnknownMsgEvent struct{ Nick, Message string }

// FloodEvent is raised when the hub's flood protection trips
type FloodEvent struct{ Nick, Message string }

func (TimerEvent) Hook() HookName            { return OnTimer }
func (ChatEvent) Hook() HookName             { return OnParsedMsgChat }
func (PrivateMessageEvent) Hook() HookName   { return OnParsedMsgPM }
func (SearchEvent) Hook() HookName           { return OnParsedMsgSearch }
func (SearchResultEvent) Hook() HookName     { return OnParsedMsgSR }
func (MyINFOEvent) Hook() HookName           { return OnParsedMsgMyINFO }
func (ValidateNickEvent) Hook() HookName     { return OnParsedMsgValidateNick }
func (ConnectToMeEvent) Hook() HookName      { return OnParsedMsgConnectToMe }
func (RevConnectToMeEvent) Hook() HookName   { return OnParsedMsgRevConnectToMe }
func (SupportsEvent) Hook() HookName         { return OnParsedMsgSupports }
func (UserLoginEvent) Hook() HookName        { return OnUserLogin }
func (UserLogoutEvent) Hook() HookName       { return OnUserLogout }
func (UserDisconnectedEvent) Hook() HookName { return OnUserDisconnected }
func (NewConnEvent) Hook() HookName          { return OnNewConn }
func (CloseConnEvent) Hook() HookName        { return OnCloseConn }
func (HubCommandEvent) Hook() HookName       { return OnHubCommand }
func (OperatorCommandEvent) Hook() HookName  { return OnOperatorCommand }
func (OperatorKicksEvent) Hook() HookName    { return OnOperatorKicks }
func (OperatorDropsEvent) Hook() HookName    { return OnOperatorDrops }
func (ValidateTagEvent) Hook() HookName      { return OnValidateTag }
func (UserInListEvent) Hook() HookName       { return OnUserInList }
func (UnknownMsgEvent) Hook() HookName       { return OnUnknownMsg }
func (FloodEvent) Hook() HookName            { return OnFlood }
