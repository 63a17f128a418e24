package stepup

import "sync"

// keyLock serializa secciones críticas por key. El orquestador lo usa para
// que la secuencia increment-then-compare de una (usuario, acción) no corra
// en paralelo dentro del proceso; entre procesos el Increment atómico del
// cache mantiene el contador correcto.
type keyLock struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{held: make(map[string]*lockEntry)}
}

// Lock toma el lock de key y retorna la función que lo libera.
func (k *keyLock) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.held[key]
	if !ok {
		e = &lockEntry{}
		k.held[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
