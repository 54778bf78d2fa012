package strategy

import "scalpbot/internal/model"

// orderStack 后进先出，只检查栈顶订单
type orderStack struct {
	orders []model.OrderState
}

func (s *orderStack) Push(o model.OrderState) {
	s.orders = append(s.orders, o)
}

func (s *orderStack) Peek() (model.OrderState, bool) {
	if len(s.orders) == 0 {
		return model.OrderState{}, false
	}
	return s.orders[len(s.orders)-1], true
}

func (s *orderStack) Pop() (model.OrderState, bool) {
	o, ok := s.Peek()
	if ok {
		s.orders = s.orders[:len(s.orders)-1]
	}
	return o, ok
}

func (s *orderStack) Len() int {
	return len(s.orders)
}

// Snapshot 从栈底到栈顶的副本
func (s *orderStack) Snapshot() []model.OrderState {
	out := make([]model.OrderState, len(s.orders))
	copy(out, s.orders)
	return out
}
