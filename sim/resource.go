package sim

import (
	"fmt"
	"sort"
)

// ClaimState is the lifecycle state of a resource claim.
type ClaimState string

const (
	ClaimWaiting  ClaimState = "waiting"  // queued behind other claims or awaiting dispatch
	ClaimActive   ClaimState = "active"   // holds a unit, grant callback ran
	ClaimReleased ClaimState = "released" // returned its unit
)

// Claim is one request for a unit of a Resource.
type Claim struct {
	Priority    int     // higher value = served first
	RequestedAt float64 // virtual time of the original request
	GrantedAt   float64 // virtual time of the most recent grant
	Preemptions int     // times this claim lost its unit to a higher priority

	state     ClaimState
	seq       uint64
	grantSeq  uint64
	onGrant   func(*Claim)
	onPreempt func(*Claim)
}

// State returns the claim's lifecycle state.
func (c *Claim) State() ClaimState {
	return c.state
}

// Resource is a counted resource with a priority-ordered wait queue and
// optional preemption of lower-priority holders.
//
// Requests and releases never grant inline. They queue the change and the
// resource dispatches once per instant in a Settle callback, after every
// claim made at that instant has been queued. Units therefore go to the
// highest priorities present, and a holder is preempted only by a claim of
// strictly higher priority than its own.
type Resource struct {
	Name       string
	Capacity   int
	Preemptive bool

	// OnQueueChange, when set, observes the wait-queue length after each
	// dispatch that changed it.
	OnQueueChange func(length int)

	sim      *Simulator
	users    []*Claim
	waitQ    []*Claim
	nextSeq  uint64
	grantSeq uint64
	pending  *Timer
	reported int
}

// NewResource creates a resource with the given number of units.
func NewResource(sim *Simulator, name string, capacity int, preemptive bool) *Resource {
	if capacity < 1 {
		panic(fmt.Sprintf("NewResource %s: capacity must be >= 1, got %d", name, capacity))
	}
	return &Resource{
		Name:       name,
		Capacity:   capacity,
		Preemptive: preemptive,
		sim:        sim,
	}
}

// InUse returns the number of units currently held.
func (r *Resource) InUse() int {
	return len(r.users)
}

// QueueLen returns the number of claims not holding a unit, including those
// made at this instant and not yet dispatched.
func (r *Resource) QueueLen() int {
	return len(r.waitQ)
}

// Holders returns the claims currently holding a unit, in grant order.
// The returned slice is a copy.
func (r *Resource) Holders() []*Claim {
	return append([]*Claim(nil), r.users...)
}

// Request asks for one unit at the given priority. onGrant runs when the unit
// is granted (again after every preemption); onPreempt runs when an active
// claim is interrupted by a higher-priority request and sent back to the
// queue. onPreempt may be nil for non-preemptive resources.
func (r *Resource) Request(priority int, onGrant, onPreempt func(*Claim)) *Claim {
	if onGrant == nil {
		panic(fmt.Sprintf("Request %s: onGrant must not be nil", r.Name))
	}
	r.nextSeq++
	c := &Claim{
		Priority:    priority,
		RequestedAt: r.sim.Now(),
		state:       ClaimWaiting,
		seq:         r.nextSeq,
		onGrant:     onGrant,
		onPreempt:   onPreempt,
	}
	r.enqueue(c, false)
	r.schedule()
	return c
}

// Release returns the unit held by c. The freed unit is handed out at the
// next dispatch. Releasing a claim that does not hold a unit is an
// internal-consistency error.
func (r *Resource) Release(c *Claim) {
	idx := r.holderIndex(c)
	if idx < 0 {
		panic(fmt.Sprintf("Release %s: claim (priority %d, state %s) does not hold a unit", r.Name, c.Priority, c.state))
	}
	r.users = append(r.users[:idx], r.users[idx+1:]...)
	c.state = ClaimReleased
	if len(r.waitQ) > 0 {
		r.schedule()
	}
}

func (r *Resource) schedule() {
	if r.pending.Pending() {
		return
	}
	r.pending = r.sim.Settle(r.dispatch)
}

// dispatch fills free units from the head of the queue, then lets queued
// claims preempt lower-priority holders.
func (r *Resource) dispatch() {
	r.pending = nil
	for len(r.waitQ) > 0 {
		next := r.waitQ[0]
		if len(r.users) >= r.Capacity {
			if !r.Preemptive {
				break
			}
			victim := r.lowestHolder()
			if victim.Priority >= next.Priority {
				break
			}
			r.preempt(victim)
		}
		r.waitQ = r.waitQ[1:]
		r.grant(next)
	}
	if len(r.waitQ) != r.reported {
		r.reported = len(r.waitQ)
		if r.OnQueueChange != nil {
			r.OnQueueChange(r.reported)
		}
	}
}

func (r *Resource) grant(c *Claim) {
	r.grantSeq++
	c.grantSeq = r.grantSeq
	c.GrantedAt = r.sim.Now()
	c.state = ClaimActive
	r.users = append(r.users, c)
	c.onGrant(c)
}

// preempt takes the unit away from victim and puts it at the front of its
// priority tier.
func (r *Resource) preempt(victim *Claim) {
	idx := r.holderIndex(victim)
	r.users = append(r.users[:idx], r.users[idx+1:]...)
	victim.Preemptions++
	victim.state = ClaimWaiting
	r.enqueue(victim, true)
	if victim.onPreempt != nil {
		victim.onPreempt(victim)
	}
}

// lowestHolder returns the holder with the lowest priority; among equals the
// most recently granted one.
func (r *Resource) lowestHolder() *Claim {
	var low *Claim
	for _, c := range r.users {
		if low == nil || c.Priority < low.Priority ||
			(c.Priority == low.Priority && c.grantSeq > low.grantSeq) {
			low = c
		}
	}
	return low
}

// enqueue inserts c keeping the queue sorted by descending priority. A
// front insert goes ahead of its own tier, a normal insert behind it.
func (r *Resource) enqueue(c *Claim, front bool) {
	pos := sort.Search(len(r.waitQ), func(i int) bool {
		if front {
			return r.waitQ[i].Priority <= c.Priority
		}
		return r.waitQ[i].Priority < c.Priority
	})
	r.waitQ = append(r.waitQ, nil)
	copy(r.waitQ[pos+1:], r.waitQ[pos:])
	r.waitQ[pos] = c
}

func (r *Resource) holderIndex(c *Claim) int {
	for i, u := range r.users {
		if u == c {
			return i
		}
	}
	return -1
}
