package phases

// Browser tracks which phase a viewer is looking at. It never writes to the
// document. An empty selection follows the live phase.
type Browser struct {
	selected string
}

func (b *Browser) Select(seq []Phase, live, id string) error {
	if err := Visible(seq, live, id); err != nil {
		return err
	}
	if id == Current(seq, live).ID {
		b.selected = ""
		return nil
	}
	b.selected = id
	return nil
}

func (b *Browser) Follow() {
	b.selected = ""
}

func (b *Browser) Following() bool {
	return b.selected == ""
}

// Shown returns the phase to render. A selection that is no longer visible,
// because the admin stepped back past it, snaps to live.
func (b *Browser) Shown(seq []Phase, live string) Phase {
	if b.selected != "" && Visible(seq, live, b.selected) == nil {
		p, _ := Find(seq, b.selected)
		return p
	}
	b.selected = ""
	return Current(seq, live)
}

func (b *Browser) Back(seq []Phase, live string) error {
	p, err := Prev(seq, b.Shown(seq, live).ID)
	if err != nil {
		return err
	}
	return b.Select(seq, live, p.ID)
}

func (b *Browser) Forward(seq []Phase, live string) error {
	p, err := Next(seq, b.Shown(seq, live).ID)
	if err != nil {
		return err
	}
	return b.Select(seq, live, p.ID)
}
