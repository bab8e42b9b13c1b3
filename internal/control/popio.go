package control

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"demiurge/internal/organism"
	"demiurge/internal/population"
)

// EmptySlotToken is the literal line written for an unoccupied slot in
// the persisted population format.
const EmptySlotToken = "<<EMPTY>>"

// SavePopulation writes one line per slot: the empty-slot token for
// unoccupied slots, otherwise the organism's self-describing string form.
func (c *Controller) SavePopulation(pop *population.Population, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < pop.Size(); i++ {
		line := EmptySlotToken
		if !pop.IsEmptyAt(i) {
			line = pop.At(i).ToString()
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SavePopulationToFile saves a population into the named file.
func (c *Controller) SavePopulationToFile(pop *population.Population, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := c.SavePopulation(pop, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadPopulation reads the persisted format: each line reserves one slot
// via the population's injection placement; the empty-slot token leaves
// the slot unoccupied, anything else is parsed by the named organism
// manager into a fresh genome. Returns the positions that received
// organisms.
func (c *Controller) LoadPopulation(pop *population.Population, orgTypeName string, r io.Reader) ([]population.Position, error) {
	var placed []population.Position
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		pos := pop.PlaceInject(organism.Empty())
		if !pos.IsValid() {
			c.notifier.Warningf("invalid position while loading population %s; line skipped", pop.Name())
			continue
		}
		if line == EmptySlotToken || line == "" {
			continue
		}
		if err := c.InjectGenomeAt(pop, orgTypeName, line, pos); err != nil {
			return placed, err
		}
		placed = append(placed, pos)
	}
	return placed, scanner.Err()
}

// LoadPopulationFromFile loads the persisted format from a file.
func (c *Controller) LoadPopulationFromFile(pop *population.Population, orgTypeName, filename string) ([]population.Position, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.LoadPopulation(pop, orgTypeName, f)
}
