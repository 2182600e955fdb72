package feed

import language "github.com/hanpama/groupfeed/internal/language"

// DefaultGroupID is the group whose discussion is shown when none is
// configured.
const DefaultGroupID = "a56d9b6e-a93c-46b1-9a60-9fdcc2abd4c9"

var (
	ListPosts = language.MustParse(`query listPosts($groupId: ID!) {
  listPosts(groupId: $groupId) {
    posts {
      ... on PostConversation {
        postId
        content
        timestamp
        commentsTotal
        author {
          id
          name
        }
      }
    }
  }
}`)

	AddPost = language.MustParse(`mutation addPost($groupId: ID!, $content: String!) {
  addPost(groupId: $groupId, content: $content) {
    postId
    content
    timestamp
    commentsTotal
    author {
      id
      name
    }
  }
}`)

	ListGroups = language.MustParse(`query listGroups {
  listGroups {
    groupId
    name
    description
    admin
    avatar
    banner
    isMember
  }
}`)

	JoinGroup = language.MustParse(`mutation joinGroup($groupId: ID!) {
  joinGroup(groupId: $groupId) {
    groupId
    isMember
  }
}`)

	LeaveGroup = language.MustParse(`mutation leaveGroup($groupId: ID!) {
  leaveGroup(groupId: $groupId) {
    groupId
    isMember
  }
}`)
)

// Documents lists every operation the feed sends.
func Documents() []*language.Document {
	return []*language.Document{ListPosts, AddPost, ListGroups, JoinGroup, LeaveGroup}
}
