package repository

import "github.com/fastygo/taskstore/domain"

// Cache is an insertion-ordered map of tasks keyed by identifier.
// It is not safe for concurrent use; Tasks guards it.
type Cache struct {
	order []string
	items map[string]domain.Task
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]domain.Task)}
}

func (c *Cache) Get(id string) (domain.Task, bool) {
	t, ok := c.items[id]
	return t, ok
}

func (c *Cache) Contains(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Put inserts or overwrites a task. Overwrites keep the original position.
func (c *Cache) Put(task domain.Task) {
	if _, ok := c.items[task.ID]; !ok {
		c.order = append(c.order, task.ID)
	}
	c.items[task.ID] = task
}

func (c *Cache) Delete(id string) {
	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, key := range c.order {
		if key == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cache) Len() int {
	return len(c.items)
}

// Values returns a copy of the cached tasks in insertion order.
func (c *Cache) Values() []domain.Task {
	out := make([]domain.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Replace discards the current contents and loads tasks.
func (c *Cache) Replace(tasks []domain.Task) {
	c.Clear()
	for _, t := range tasks {
		c.Put(t)
	}
}

func (c *Cache) Clear() {
	c.order = nil
	c.items = make(map[string]domain.Task)
}

// Retain drops every task for which keep returns false.
func (c *Cache) Retain(keep func(domain.Task) bool) {
	order := c.order[:0]
	for _, id := range c.order {
		if keep(c.items[id]) {
			order = append(order, id)
			continue
		}
		delete(c.items, id)
	}
	c.order = order
}
