package tmv71

import "fmt"

// The protocol operations are thin compositions: render the command,
// exchange it over the transport, parse the echoed reply. The radio
// acknowledges every write by echoing the full record, so pushes are
// validated through the same parsers as pulls.

func (r *Rig) pullME(channel int) (Memory, error) {
	reply, err := r.trx.Exchange(fmt.Sprintf("ME %03d", channel))
	if err != nil {
		return Memory{}, err
	}
	return parseMemory(reply)
}

func (r *Rig) pushME(m Memory) error {
	reply, err := r.trx.Exchange(m.encode())
	if err != nil {
		return err
	}
	_, err = parseMemory(reply)
	return err
}

func (r *Rig) pullVM(band int) (BandMode, error) {
	reply, err := r.trx.Exchange(fmt.Sprintf("VM %d", band))
	if err != nil {
		return BandMode{}, err
	}
	return parseBandMode(reply)
}

func (r *Rig) pushVM(band int, mode int) error {
	reply, err := r.trx.Exchange(fmt.Sprintf("VM %d,%d", band, mode))
	if err != nil {
		return err
	}
	_, err = parseBandMode(reply)
	return err
}

func (r *Rig) pullBC() (ControlPTT, error) {
	reply, err := r.trx.Exchange("BC")
	if err != nil {
		return ControlPTT{}, err
	}
	return parseControlPTT(reply)
}

func (r *Rig) pushBC(bc ControlPTT) error {
	cmd, err := bc.encode()
	if err != nil {
		return err
	}
	reply, err := r.trx.Exchange(cmd)
	if err != nil {
		return err
	}
	_, err = parseControlPTT(reply)
	return err
}

func (r *Rig) pullMR(band int) (ChannelSelection, error) {
	reply, err := r.trx.Exchange(fmt.Sprintf("MR %d", band))
	if err != nil {
		return ChannelSelection{}, err
	}
	return parseChannelSelection(reply)
}

func (r *Rig) pushMR(band int, channel int) error {
	reply, err := r.trx.Exchange(fmt.Sprintf("MR %d,%03d", band, channel))
	if err != nil {
		return err
	}
	_, err = parseChannelSelection(reply)
	return err
}

func (r *Rig) pullMN(channel int) (string, error) {
	reply, err := r.trx.Exchange(fmt.Sprintf("MN %03d", channel))
	if err != nil {
		return "", err
	}
	name, err := parseChannelName(reply)
	if err != nil {
		return "", err
	}
	return name.Name, nil
}

func (r *Rig) pushMN(channel int, name string) error {
	reply, err := r.trx.Exchange(fmt.Sprintf("MN %03d,%s", channel, name))
	if err != nil {
		return err
	}
	_, err = parseChannelName(reply)
	return err
}

func (r *Rig) pushTX() error {
	_, err := r.trx.Exchange("TX")
	return err
}

func (r *Rig) pushRX() error {
	_, err := r.trx.Exchange("RX")
	return err
}

func (r *Rig) pullBY(band int) (SquelchState, error) {
	reply, err := r.trx.Exchange(fmt.Sprintf("BY %d", band))
	if err != nil {
		return SquelchState{}, err
	}
	return parseSquelchState(reply)
}
