package node

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zialiel/zialiel/src/committee"
	"github.com/zialiel/zialiel/src/consensus"
	"github.com/zialiel/zialiel/src/dag"
	"github.com/zialiel/zialiel/src/ledger"
)

// Node runs the consensus and ledger-application pipeline for one
// participant: it collects transactions into batches, admits them to its DAG
// store, proposes and votes on checkpoints, and applies finalized cohorts to
// its own ledger.
//
// Nodes do not share mutable state except the consensus State they are
// explicitly constructed around; batches and checkpoints reach other nodes as
// messages, through whatever transport the embedding application provides.
type Node struct {
	validator *Validator

	store     dag.Store
	ledgerSt  *ledger.Ledger
	committee *committee.Committee
	engine    *consensus.Engine

	mempoolMu sync.Mutex
	mempool   []*dag.Transaction

	// repertoire of known account public keys, fed by the committee list and
	// by explicit registration of non-validator accounts
	knownMu   sync.RWMutex
	knownKeys map[string][]byte

	// checkpoint digests already applied to this node's ledger
	appliedMu sync.Mutex
	applied   map[string]bool

	finalizedCh <-chan consensus.FinalizedCheckpoint
	shutdownCh  chan struct{}
	wg          sync.WaitGroup

	logger *logrus.Entry
}

// NewNode instantiates a Node around a shared consensus State. The committee
// members' public keys seed the repertoire of known accounts.
func NewNode(
	validator *Validator,
	store dag.Store,
	c *committee.Committee,
	state *consensus.State,
	logger *logrus.Entry,
) *Node {
	nodeLogger := logger.WithField("moniker", validator.Moniker)

	n := &Node{
		validator:   validator,
		store:       store,
		ledgerSt:    ledger.NewLedger(nodeLogger),
		committee:   c,
		knownKeys:   make(map[string][]byte),
		applied:     make(map[string]bool),
		finalizedCh: state.Subscribe(),
		shutdownCh:  make(chan struct{}),
		logger:      nodeLogger,
	}

	n.engine = consensus.NewEngine(state, c, validator.Scheme, store, nodeLogger)

	for _, m := range c.Current() {
		n.knownKeys[m.Moniker] = m.PubKeyBytes()
	}
	n.knownKeys[validator.Moniker] = validator.PublicKeyBytes()

	return n
}

// Validator returns the node's signing identity.
func (n *Node) Validator() *Validator {
	return n.validator
}

// Store returns the node's DAG store.
func (n *Node) Store() dag.Store {
	return n.store
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledgerSt
}

// Committee returns the committee registry.
func (n *Node) Committee() *committee.Committee {
	return n.committee
}

// Engine returns the node's finality engine.
func (n *Node) Engine() *consensus.Engine {
	return n.engine
}

// RegisterAccount adds a non-validator account's public key to the
// repertoire, so its transactions can be verified during checkpoint
// application.
func (n *Node) RegisterAccount(moniker string, pubKey []byte) {
	n.knownMu.Lock()
	defer n.knownMu.Unlock()

	n.knownKeys[moniker] = pubKey
}

func (n *Node) knownKey(moniker string) ([]byte, bool) {
	n.knownMu.RLock()
	defer n.knownMu.RUnlock()

	key, ok := n.knownKeys[moniker]

	return key, ok
}

// CreateTransaction creates, signs, and enqueues a transfer from this node's
// account.
func (n *Node) CreateTransaction(recipient string, amount, fee int64) (*dag.Transaction, error) {
	tx := dag.NewTransaction(n.validator.Moniker, recipient, amount, fee)

	if err := tx.Sign(n.validator.Scheme, n.validator.PrivateKeyBytes()); err != nil {
		return nil, err
	}

	n.mempoolMu.Lock()
	n.mempool = append(n.mempool, tx)
	n.mempoolMu.Unlock()

	n.logger.WithFields(logrus.Fields{
		"tx":        tx.ID,
		"recipient": recipient,
		"amount":    amount,
		"fee":       fee,
	}).Debug("Created transaction")

	return tx, nil
}

// SubmitTransaction enqueues an externally created, already signed
// transaction.
func (n *Node) SubmitTransaction(tx *dag.Transaction) {
	n.mempoolMu.Lock()
	n.mempool = append(n.mempool, tx)
	n.mempoolMu.Unlock()
}

// CreateBatch drains the mempool into a new signed BatchRecord and admits it
// to the DAG store. The batch's parents are the current tips, or the genesis
// sentinel when the DAG is empty. An empty mempool produces no batch.
func (n *Node) CreateBatch() (*dag.BatchRecord, error) {
	n.mempoolMu.Lock()
	txs := n.mempool
	n.mempool = nil
	n.mempoolMu.Unlock()

	if len(txs) == 0 {
		n.logger.Debug("No transactions in mempool, skipping batch")
		return nil, nil
	}

	parents := n.store.Tips()
	if len(parents) == 0 {
		parents = []string{dag.Genesis}
	}

	batch := dag.NewBatchRecord(txs, parents, n.validator.Moniker)

	if err := batch.Sign(n.validator.Scheme, n.validator.PrivateKeyBytes()); err != nil {
		return nil, err
	}

	if err := n.store.AddBatch(batch); err != nil {
		return nil, err
	}

	batchesCreated.Inc()

	n.logger.WithFields(logrus.Fields{
		"batch":   batch.Hex(),
		"txs":     len(txs),
		"parents": len(parents),
	}).Debug("Created batch")

	return batch, nil
}

// ProposeCheckpoint builds a Checkpoint over all currently unconfirmed
// batches, admits it to the DAG store, and submits it to the finality engine.
// The proposal counts as this node's first vote. When every batch is already
// covered by a checkpoint there is nothing to propose.
func (n *Node) ProposeCheckpoint() (*dag.Checkpoint, error) {
	unconfirmed := n.store.UnconfirmedBatches()
	if len(unconfirmed) == 0 {
		n.logger.Debug("No unconfirmed batches, skipping checkpoint")
		return nil, nil
	}

	cohort := make([]string, len(unconfirmed))
	for i, batch := range unconfirmed {
		cohort[i] = batch.Hex()
	}

	parent := dag.Genesis
	if stored := n.store.Checkpoints(); len(stored) > 0 {
		parent = stored[len(stored)-1]
	}

	checkpoint := dag.NewCheckpoint(cohort, parent, n.validator.Moniker)

	if err := checkpoint.Sign(n.validator.Scheme, n.validator.PrivateKeyBytes()); err != nil {
		return nil, err
	}

	if err := n.store.AddCheckpoint(checkpoint); err != nil {
		return nil, err
	}

	if err := n.engine.Propose(checkpoint, n.validator.Moniker, n.validator.PrivateKeyBytes()); err != nil {
		return nil, err
	}

	return checkpoint, nil
}

// ReceiveCheckpoint admits a checkpoint proposed elsewhere to the local DAG
// store. Duplicates are tolerated.
func (n *Node) ReceiveCheckpoint(checkpoint *dag.Checkpoint) error {
	err := n.store.AddCheckpoint(checkpoint)
	if err != nil {
		n.logger.WithField("checkpoint", checkpoint.Hex()).Debug(err)
	}
	return err
}

// VoteCheckpoint casts this node's vote for a checkpoint digest.
func (n *Node) VoteCheckpoint(digest string) error {
	return n.engine.CastVote(digest, n.validator.Moniker, n.validator.PrivateKeyBytes())
}

// Run consumes finalization events and applies each finalized checkpoint to
// the local ledger until Shutdown is called.
func (n *Node) Run() {
	n.wg.Add(1)
	defer n.wg.Done()

	for {
		select {
		case event := <-n.finalizedCh:
			n.applyFinalized(event)
		case <-n.shutdownCh:
			return
		}
	}
}

// Shutdown stops the Run loop and closes the store.
func (n *Node) Shutdown() {
	close(n.shutdownCh)
	n.wg.Wait()
	n.store.Close()
}

// DrainFinalized synchronously applies any pending finalization events. It is
// the single-threaded alternative to Run, used by simulations and tests.
func (n *Node) DrainFinalized() {
	for {
		select {
		case event := <-n.finalizedCh:
			n.applyFinalized(event)
		default:
			return
		}
	}
}

func (n *Node) applyFinalized(event consensus.FinalizedCheckpoint) {
	if err := n.store.AddFinalized(event.Digest); err != nil {
		n.logger.WithField("checkpoint", event.Digest).Warn(err)
	}

	n.applyCohort(event.Digest, event.Cohort)
}

// ApplyCheckpoint applies a finalized checkpoint, looked up in the local DAG
// store, to the ledger. Applying the same digest twice is a no-op: the node
// tracks which digests it has already applied.
func (n *Node) ApplyCheckpoint(digest string) error {
	checkpoint, err := n.store.GetCheckpoint(digest)
	if err != nil {
		n.logger.WithField("checkpoint", digest).Warn("Finalized checkpoint not in local store")
		return err
	}

	n.applyCohort(digest, checkpoint.Cohort)

	return nil
}

// applyCohort walks a finalized cohort and drives each transaction through
// the ledger. A missing batch, an unknown sender, an invalid signature, or
// insufficient funds skips that unit only; previously applied transactions in
// the same batch are not rolled back.
func (n *Node) applyCohort(digest string, cohort []string) {
	n.appliedMu.Lock()
	if n.applied[digest] {
		n.appliedMu.Unlock()
		n.logger.WithField("checkpoint", digest).Debug("Checkpoint already applied")
		return
	}
	n.applied[digest] = true
	n.appliedMu.Unlock()

	n.logger.WithFields(logrus.Fields{
		"checkpoint": digest,
		"cohort":     len(cohort),
	}).Info("Applying finalized checkpoint")

	for _, batchHex := range cohort {
		batch, err := n.store.GetBatch(batchHex)
		if err != nil {
			n.logger.WithFields(logrus.Fields{
				"checkpoint": digest,
				"batch":      batchHex,
			}).Warn("Batch from finalized checkpoint not in local store")
			continue
		}

		for _, tx := range batch.Transactions {
			n.applyTransaction(tx)
		}
	}

	checkpointsApplied.Inc()
}

func (n *Node) applyTransaction(tx *dag.Transaction) {
	pubKey, ok := n.knownKey(tx.Sender)
	if !ok {
		n.logger.WithFields(logrus.Fields{
			"tx":     tx.ID,
			"sender": tx.Sender,
		}).Warn("Public key for sender unknown, skipping transaction")
		transactionsSkipped.WithLabelValues("unknown_sender").Inc()
		return
	}

	valid, err := tx.Verify(n.validator.Scheme, pubKey)
	if err != nil || !valid {
		n.logger.WithFields(logrus.Fields{
			"tx":     tx.ID,
			"sender": tx.Sender,
		}).Warn("Invalid transaction signature, skipping")
		transactionsSkipped.WithLabelValues("invalid_signature").Inc()
		return
	}

	if err := n.ledgerSt.ApplyTransaction(tx.Sender, tx.Recipient, tx.Amount, tx.Fee); err != nil {
		n.logger.WithFields(logrus.Fields{
			"tx":     tx.ID,
			"sender": tx.Sender,
		}).Warn(err)
		transactionsSkipped.WithLabelValues("insufficient_funds").Inc()
		return
	}

	n.ledgerSt.DistributeFee(tx.Fee)

	transactionsApplied.Inc()
	feesCollected.Add(float64(tx.Fee))
}

// Bootstrap re-applies every finalized checkpoint recorded in the store, in
// finalization order. It is used after loading a persistent store to
// reconstruct the ledger deterministically.
func (n *Node) Bootstrap() {
	for _, digest := range n.store.Finalized() {
		if err := n.ApplyCheckpoint(digest); err != nil {
			n.logger.WithField("checkpoint", digest).Warn(err)
		}
	}
}

// GetStats returns a set of key figures about the node.
func (n *Node) GetStats() map[string]string {
	n.mempoolMu.Lock()
	mempool := len(n.mempool)
	n.mempoolMu.Unlock()

	return map[string]string{
		"moniker":        n.validator.Moniker,
		"id":             strconv.FormatUint(uint64(n.validator.ID()), 10),
		"sig_scheme":     n.validator.Scheme.Name(),
		"batches":        strconv.Itoa(n.store.BatchCount()),
		"checkpoints":    strconv.Itoa(len(n.store.Checkpoints())),
		"finalized":      strconv.Itoa(len(n.store.Finalized())),
		"tips":           strconv.Itoa(len(n.store.Tips())),
		"mempool":        strconv.Itoa(mempool),
		"committee_size": strconv.Itoa(n.committee.Len()),
		"quorum":         strconv.Itoa(n.committee.Quorum()),
	}
}
