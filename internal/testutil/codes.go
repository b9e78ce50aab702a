package testutil

import (
	"fmt"
	"sync"
	"time"
)

// Codes devolve os candidatos das listas em ordem e repete o último, para
// forçar colisões. Lista vazia gera valores sequenciais únicos.
type Codes struct {
	Short   []string
	Numbers []string
	Tokens  []string

	mu    sync.Mutex
	calls map[string]int
}

func (c *Codes) next(kind string, list []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	n := c.calls[kind]
	c.calls[kind]++
	if len(list) == 0 {
		return fmt.Sprintf("%s%05d", kind, n+1)
	}
	if n >= len(list) {
		n = len(list) - 1
	}
	return list[n]
}

// Calls diz quantos candidatos de um tipo ("S", "N" ou "Q") foram pedidos.
func (c *Codes) Calls(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[kind]
}

func (c *Codes) ShortCode() (string, error) { return c.next("S", c.Short), nil }

func (c *Codes) ContractNumber(time.Time) (string, error) { return c.next("N", c.Numbers), nil }

func (c *Codes) QRToken() string { return c.next("Q", c.Tokens) }
