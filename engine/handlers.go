package engine

func (m *Machine) unaryI32(op func(a uint32) uint32) error {
	a, err := m.stack.popI32()
	if err != nil {
		return err
	}
	return m.stack.pushI32(op(a))
}

func (m *Machine) unaryI64(op func(a uint64) uint64) error {
	a, err := m.stack.popI64()
	if err != nil {
		return err
	}
	return m.stack.pushI64(op(a))
}

func (m *Machine) testI32(op func(a uint32) bool) error {
	a, err := m.stack.popI32()
	if err != nil {
		return err
	}
	return m.stack.pushI32(boolToI32(op(a)))
}

func (m *Machine) testI64(op func(a uint64) bool) error {
	a, err := m.stack.popI64()
	if err != nil {
		return err
	}
	return m.stack.pushI32(boolToI32(op(a)))
}

func (m *Machine) popPairI32() (a, b uint32, err error) {
	if b, err = m.stack.popI32(); err != nil {
		return 0, 0, err
	}
	if a, err = m.stack.popI32(); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (m *Machine) popPairI64() (a, b uint64, err error) {
	if b, err = m.stack.popI64(); err != nil {
		return 0, 0, err
	}
	if a, err = m.stack.popI64(); err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (m *Machine) binaryI32(op func(a, b uint32) uint32) error {
	a, b, err := m.popPairI32()
	if err != nil {
		return err
	}
	return m.stack.pushI32(op(a, b))
}

func (m *Machine) binaryI64(op func(a, b uint64) uint64) error {
	a, b, err := m.popPairI64()
	if err != nil {
		return err
	}
	return m.stack.pushI64(op(a, b))
}

func (m *Machine) binarySafeI32(op func(a, b uint32) (uint32, error)) error {
	a, b, err := m.popPairI32()
	if err != nil {
		return err
	}
	result, err := op(a, b)
	if err != nil {
		return err
	}
	return m.stack.pushI32(result)
}

func (m *Machine) binarySafeI64(op func(a, b uint64) (uint64, error)) error {
	a, b, err := m.popPairI64()
	if err != nil {
		return err
	}
	result, err := op(a, b)
	if err != nil {
		return err
	}
	return m.stack.pushI64(result)
}

func (m *Machine) compareI32(op func(a, b uint32) bool) error {
	a, b, err := m.popPairI32()
	if err != nil {
		return err
	}
	return m.stack.pushI32(boolToI32(op(a, b)))
}

func (m *Machine) compareI64(op func(a, b uint64) bool) error {
	a, b, err := m.popPairI64()
	if err != nil {
		return err
	}
	return m.stack.pushI32(boolToI32(op(a, b)))
}
