package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Defaults match the reference training setup: a [in→16→8→1] network
// trained for 50 passes at a 0.05 step size.
var DefaultHiddenLayers = []int{16, 8}

const (
	DefaultEpochs       = 50
	DefaultLearningRate = 0.05

	probEpsilon = 1e-7 // keeps the cross-entropy log away from 0
)

// MLPTrainer trains a small feed-forward network with ReLU hidden layers, a
// sigmoid output unit and a binary cross-entropy objective, optimized with
// per-sample SGD. Row order is reshuffled on every pass.
type MLPTrainer struct{}

func NewMLPTrainer() *MLPTrainer {
	return &MLPTrainer{}
}

// network is a trained MLP. Weights are laid out as w[l][j][i]: connection
// from unit i in layer l to unit j in layer l+1.
type network struct {
	sizes  []int
	w      [][][]float64
	b      [][]float64
	closed bool
}

// Train builds and fits a network for the given batch. It returns an error
// for empty input, ragged rows or a cancelled context; the caller owns the
// returned model and must Close it.
func (t *MLPTrainer) Train(ctx context.Context, features [][]float64, labels []float64, opts Options) (Model, error) {
	if len(features) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(features) != len(labels) {
		return nil, ErrShapeMismatch
	}
	inputDim := len(features[0])
	if inputDim == 0 {
		return nil, ErrNoTrainingData
	}
	for _, row := range features {
		if len(row) != inputDim {
			return nil, ErrShapeMismatch
		}
	}

	hidden := opts.HiddenLayers
	if len(hidden) == 0 {
		hidden = DefaultHiddenLayers
	}
	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = DefaultLearningRate
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sizes := append([]int{inputDim}, hidden...)
	sizes = append(sizes, 1)
	net := newNetwork(sizes, rng)

	perm := make([]int, len(features))
	for i := range perm {
		perm[i] = i
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		select {
		case <-ctx.Done():
			net.Close()
			return nil, fmt.Errorf("training interrupted at epoch %d: %w", epoch, ctx.Err())
		default:
		}

		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

		totalLoss := 0.0
		for _, idx := range perm {
			totalLoss += net.trainSample(features[idx], labels[idx], lr)
		}

		if opts.Observer != nil {
			opts.Observer(epoch, totalLoss/float64(len(features)))
		}
	}

	return net, nil
}

func newNetwork(sizes []int, rng *rand.Rand) *network {
	net := &network{sizes: sizes}
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		limit := math.Sqrt(6.0 / float64(fanIn+fanOut))

		weights := make([][]float64, fanOut)
		for j := range weights {
			weights[j] = make([]float64, fanIn)
			for i := range weights[j] {
				weights[j][i] = (rng.Float64()*2 - 1) * limit
			}
		}
		net.w = append(net.w, weights)
		net.b = append(net.b, make([]float64, fanOut))
	}
	return net
}

// forward runs one input through the network, returning pre-activations and
// activations per layer. Hidden layers use ReLU, the output unit sigmoid.
func (n *network) forward(x []float64) (zs [][]float64, as [][]float64) {
	as = append(as, x)
	a := x
	for l := 0; l < len(n.w); l++ {
		z := make([]float64, len(n.w[l]))
		out := make([]float64, len(n.w[l]))
		last := l == len(n.w)-1
		for j := range n.w[l] {
			sum := n.b[l][j]
			for i, wij := range n.w[l][j] {
				sum += wij * a[i]
			}
			z[j] = sum
			if last {
				out[j] = sigmoid(sum)
			} else {
				out[j] = math.Max(0, sum)
			}
		}
		zs = append(zs, z)
		as = append(as, out)
		a = out
	}
	return zs, as
}

// trainSample performs one forward/backward pass and an SGD update,
// returning the sample's cross-entropy loss.
func (n *network) trainSample(x []float64, y, lr float64) float64 {
	zs, as := n.forward(x)
	p := as[len(as)-1][0]

	// With a sigmoid output and cross-entropy loss the output delta
	// collapses to p - y.
	deltas := make([][]float64, len(n.w))
	deltas[len(n.w)-1] = []float64{p - y}

	for l := len(n.w) - 2; l >= 0; l-- {
		next := deltas[l+1]
		delta := make([]float64, n.sizes[l+1])
		for i := range delta {
			sum := 0.0
			for j := range next {
				sum += n.w[l+1][j][i] * next[j]
			}
			if zs[l][i] > 0 {
				delta[i] = sum
			}
		}
		deltas[l] = delta
	}

	for l := range n.w {
		in := as[l]
		for j := range n.w[l] {
			d := deltas[l][j]
			for i := range n.w[l][j] {
				n.w[l][j][i] -= lr * d * in[i]
			}
			n.b[l][j] -= lr * d
		}
	}

	pc := clampProb(p)
	return -(y*math.Log(pc) + (1-y)*math.Log(1-pc))
}

// Predict returns one probability in [0,1] per input row, in order.
func (n *network) Predict(features [][]float64) ([]float64, error) {
	if n.closed {
		return nil, ErrModelClosed
	}
	probs := make([]float64, len(features))
	for k, row := range features {
		if len(row) != n.sizes[0] {
			return nil, ErrShapeMismatch
		}
		_, as := n.forward(row)
		probs[k] = as[len(as)-1][0]
	}
	return probs, nil
}

// Evaluate returns the fraction of rows whose thresholded prediction
// matches the label.
func (n *network) Evaluate(features [][]float64, labels []float64) (float64, error) {
	if len(features) != len(labels) {
		return 0, ErrShapeMismatch
	}
	if len(features) == 0 {
		return 0, ErrNoTrainingData
	}
	probs, err := n.Predict(features)
	if err != nil {
		return 0, err
	}
	correct := 0
	for k, p := range probs {
		predicted := 0.0
		if p > 0.5 {
			predicted = 1.0
		}
		if predicted == labels[k] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// Close releases the weight buffers. Safe to call more than once.
func (n *network) Close() error {
	n.w = nil
	n.b = nil
	n.closed = true
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
}
