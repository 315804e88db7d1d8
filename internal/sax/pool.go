package sax

// maxPoolSize bounds how many distinct strings a Pool remembers.
const maxPoolSize = 4096

// Pool is a string interner usable as both NameInterner and ValueInterner.
// It is not safe for concurrent use; give each parse its own Pool.
type Pool struct {
	strings map[string]string
}

func NewPool(seed ...string) *Pool {
	p := &Pool{strings: make(map[string]string, len(seed))}
	for _, s := range seed {
		p.strings[s] = s
	}
	return p
}

func (p *Pool) Intern(s string) string {
	if v, ok := p.strings[s]; ok {
		return v
	}
	if len(p.strings) < maxPoolSize {
		p.strings[s] = s
	}
	return s
}

func (p *Pool) InternName(local, _ string) string {
	return p.Intern(local)
}

func (p *Pool) InternValue(value string) string {
	return p.Intern(value)
}

func (p *Pool) Len() int {
	return len(p.strings)
}
