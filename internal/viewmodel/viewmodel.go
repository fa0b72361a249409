package viewmodel

// StatusPage holds data for the live connections status page.
type StatusPage struct {
	Title     string
	Users     int
	Channels  int
	Keepalive int
	Endpoints []Endpoint
}

// Endpoint describes one push endpoint clients can connect to.
type Endpoint struct {
	Path      string
	Transport string
}
