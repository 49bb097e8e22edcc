package models

// Actor identifies who triggered a mutation. It feeds audit entries and acta metadata.
type Actor struct {
	ID    string
	Email string
	Name  string
	IP    string
}

// ActorFrom builds an actor from an authenticated principal and the client address.
func ActorFrom(p Principal, ip string) Actor {
	return Actor{ID: p.ID(), Email: p.Email(), Name: p.Name(), IP: ip}
}
