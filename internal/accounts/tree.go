package accounts

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TreeNode is an account with its children attached.
type TreeNode struct {
	Account
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree arranges a flat account list into a forest ordered by code.
// Siblings sort lexicographically by code, so "1.10" precedes "1.2".
// Header balances are rolled up from active descendants.
func BuildTree(accounts []Account) []*TreeNode {
	byParent := make(map[int64][]*TreeNode)
	var roots []*TreeNode
	nodes := make(map[int64]*TreeNode, len(accounts))

	for _, acc := range accounts {
		node := &TreeNode{Account: acc}
		nodes[acc.ID] = node
		if acc.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		byParent[*acc.ParentID] = append(byParent[*acc.ParentID], node)
	}

	var attach func(node *TreeNode)
	attach = func(node *TreeNode) {
		children := byParent[node.ID]
		sort.Slice(children, func(i, j int) bool {
			return children[i].Code < children[j].Code
		})
		node.Children = children
		for _, child := range children {
			attach(child)
		}
		if node.IsHeader {
			node.CurrentBalance = rollupBalance(node)
		}
	}

	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Code < roots[j].Code
	})
	for _, root := range roots {
		attach(root)
	}
	return roots
}

func rollupBalance(node *TreeNode) decimal.Decimal {
	total := decimal.Zero
	for _, child := range node.Children {
		if child.IsHeader {
			total = total.Add(rollupBalance(child))
			continue
		}
		if child.IsActive {
			total = total.Add(child.CurrentBalance)
		}
	}
	return total
}
